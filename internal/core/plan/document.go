package plan

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the frontmatter block of a plan document.
const Delimiter = "---"

// Split separates a document into its frontmatter block and body.
//
// Leading whitespace is ignored. The frontmatter is the text between the
// first line and the next line consisting only of the delimiter; the body is
// everything after that line, left-trimmed. If the document does not open
// with a delimiter line, or the block is never closed, ok is false and body
// is the whole (left-trimmed) content.
func Split(content string) (front, body string, ok bool) {
	content = strings.TrimLeft(content, " \t\r\n")

	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimSpace(first) != Delimiter {
		return "", content, false
	}

	var lines []string
	for {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == Delimiter {
			return strings.Join(lines, "\n"), strings.TrimLeft(next, " \t\r\n"), true
		}
		lines = append(lines, line)
		if !more {
			break
		}
		rest = next
	}

	return "", content, false
}

// Parse decodes a plan document. Content without a frontmatter block yields a
// plan with empty metadata whose body is the whole content. A frontmatter
// block that is malformed or lacks required fields is a *SerializationError.
func Parse(content string) (Plan, error) {
	front, body, ok := Split(content)
	if !ok {
		return Plan{Body: body}, nil
	}

	meta, err := decodeMeta(front)
	if err != nil {
		return Plan{}, err
	}

	return Plan{Meta: meta, Body: body}, nil
}

// ParseDocument is like Parse but requires the frontmatter block to exist.
func ParseDocument(content string) (Plan, error) {
	front, body, ok := Split(content)
	if !ok {
		return Plan{}, &SerializationError{Reason: "missing frontmatter block"}
	}

	meta, err := decodeMeta(front)
	if err != nil {
		return Plan{}, err
	}

	return Plan{Meta: meta, Body: body}, nil
}

// Serialize encodes p as a plan document.
func Serialize(p Plan) (string, error) {
	if err := p.Meta.validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p.Meta); err != nil {
		return "", &SerializationError{Reason: "encode frontmatter", Err: err}
	}
	if err := enc.Close(); err != nil {
		return "", &SerializationError{Reason: "encode frontmatter", Err: err}
	}

	var sb strings.Builder
	sb.WriteString(Delimiter)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(buf.String()))
	sb.WriteString("\n")
	sb.WriteString(Delimiter)
	sb.WriteString("\n\n")
	sb.WriteString(p.Body)

	return sb.String(), nil
}

func decodeMeta(front string) (Meta, error) {
	var meta Meta
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return Meta{}, &SerializationError{Reason: "decode frontmatter", Err: err}
	}
	if err := meta.validate(); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// validate checks the fields every stored plan document must carry.
func (m Meta) validate() error {
	missing := func(field string) error {
		return &SerializationError{Reason: "missing required field " + field}
	}

	switch {
	case m.ID == "":
		return missing("id")
	case m.Title == "":
		return missing("title")
	case m.State == "":
		return missing("state")
	case m.CreatedAt == "":
		return missing("created_at")
	case m.UpdatedAt == "":
		return missing("updated_at")
	}

	if !m.State.IsValid() {
		return &SerializationError{Reason: "unknown state " + string(m.State)}
	}

	for _, rs := range m.ReviewSteps {
		if rs.Step == "" {
			return &SerializationError{Reason: "review step without a name"}
		}
		if !rs.Status.IsValid() {
			return &SerializationError{Reason: "review step " + rs.Step + " has unknown status " + string(rs.Status)}
		}
	}

	return nil
}
