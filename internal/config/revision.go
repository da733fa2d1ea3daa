package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// SetRevision rewrites the revision of one target in the configuration file at
// configPath. An existing revision scalar is replaced in place, leaving every
// other byte of the file untouched; a target without one gets the key appended
// through a re-encode of the YAML node tree. The write is a rename over the
// original. It returns the previous revision.
func SetRevision(configPath, target, revision string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", errors.FileSystemFailure(err, "read config").Build()
	}

	out, previous, err := rewriteRevision(data, target, revision)
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(configPath, out); err != nil {
		return "", err
	}
	return previous, nil
}

func rewriteRevision(data []byte, target, revision string) ([]byte, string, error) {
	if revision == "" {
		return nil, "", errors.ValidationError("revision must not be empty").Build()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", errors.ConfigError("failed to parse configuration").WithCause(err).Build()
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, "", errors.ConfigError("configuration is empty").Build()
	}

	targets := mappingValue(doc.Content[0], "targets")
	if targets == nil || targets.Kind != yaml.SequenceNode {
		return nil, "", errors.ConfigError("configuration has no targets list").Build()
	}

	for _, item := range targets.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		name := mappingValue(item, "name")
		if name == nil || name.Value != target {
			continue
		}

		var previous string
		if rev := mappingValue(item, "revision"); rev != nil {
			previous = rev.Value
			if out, ok := spliceScalar(data, rev, revision); ok {
				return out, previous, nil
			}
			rev.Value = revision
			rev.Tag = "!!str"
			rev.Style = 0
		} else {
			item.Content = append(item.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "revision"},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: revision},
			)
		}

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return nil, "", errors.InternalError("failed to encode configuration").WithCause(err).Build()
		}
		if err := enc.Close(); err != nil {
			return nil, "", errors.InternalError("failed to encode configuration").WithCause(err).Build()
		}
		return buf.Bytes(), previous, nil
	}

	return nil, "", errors.ValidationError("unknown target").WithContext("target", target).Build()
}

// plainSafe matches values that need no quoting as plain scalars.
var plainSafe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// spliceScalar replaces the source text of scalar n with value, keeping its
// quoting style. It reports false when the source text cannot be located
// exactly, in which case the caller re-encodes.
func spliceScalar(data []byte, n *yaml.Node, value string) ([]byte, bool) {
	if n.Kind != yaml.ScalarNode || n.Line < 1 || n.Column < 1 {
		return nil, false
	}
	off := 0
	for line := 1; line < n.Line; line++ {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			return nil, false
		}
		off += i + 1
	}
	// Columns count characters, not bytes.
	for col := 1; col < n.Column; col++ {
		if off >= len(data) || data[off] == '\n' {
			return nil, false
		}
		_, size := utf8.DecodeRune(data[off:])
		off += size
	}

	var end int
	var replacement string
	switch n.Style {
	case 0:
		if !bytes.HasPrefix(data[off:], []byte(n.Value)) || !plainSafe.MatchString(value) {
			return nil, false
		}
		end = off + len(n.Value)
		replacement = value
	case yaml.DoubleQuotedStyle, yaml.SingleQuotedStyle:
		quote := byte('"')
		if n.Style == yaml.SingleQuotedStyle {
			quote = '\''
		}
		if off >= len(data) || data[off] != quote || strings.ContainsAny(value, "\"'\\") {
			return nil, false
		}
		closing := bytes.IndexByte(data[off+1:], quote)
		if closing < 0 || string(data[off+1:off+1+closing]) != n.Value {
			return nil, false
		}
		end = off + 1 + closing + 1
		replacement = string(quote) + value + string(quote)
	default:
		return nil, false
	}

	out := make([]byte, 0, len(data)-(end-off)+len(replacement))
	out = append(out, data[:off]...)
	out = append(out, replacement...)
	out = append(out, data[end:]...)
	return out, true
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.FileSystemFailure(err, "stat config").Build()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.FileSystemFailure(err, "create temp config").Build()
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.FileSystemFailure(err, "write temp config").Build()
	}
	if err := tmp.Close(); err != nil {
		return errors.FileSystemFailure(err, "close temp config").Build()
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return errors.FileSystemFailure(err, "chmod temp config").Build()
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.FileSystemFailure(err, "replace config").Build()
	}
	return nil
}
