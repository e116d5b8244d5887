// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// maxFileSize bounds the configuration and project files tagscope reads.
const maxFileSize = 1 << 20

// unifyFile compiles data and unifies it with the definition def of schema.
// The result is validated without requiring concrete values, since every
// field of both schemas is optional.
func unifyFile(schema, def string, data []byte, filename string) (cue.Value, error) {
	if len(data) > maxFileSize {
		return cue.Value{}, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxFileSize)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(schema)
	if err := schemaValue.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("internal error: compile schema: %w", err)
	}
	root := schemaValue.LookupPath(cue.ParsePath(def))
	if err := root.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s: %w", def, err)
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return cue.Value{}, formatCUEError(err, filename)
	}

	unified := root.Unify(user)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cue.Value{}, formatCUEError(err, filename)
	}
	return unified, nil
}

// decodeFile unifies data with def and decodes the result into out.
func decodeFile(schema, def string, data []byte, filename string, out any) error {
	unified, err := unifyFile(schema, def, data, filename)
	if err != nil {
		return err
	}
	if err := unified.Decode(out); err != nil {
		return formatCUEError(err, filename)
	}
	return nil
}

// formatCUEError flattens a CUE error list into "<file>: <field path>: <message>"
// lines, e.g. "config.cue: mappings[0].category: invalid value".
func formatCUEError(err error, filename string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		path := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if path == "" {
			lines = append(lines, msg)
			continue
		}
		msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		lines = append(lines, path+": "+msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// fieldPath renders ["mappings", "0", "tags"] as "mappings[0].tags".
func fieldPath(parts []string) string {
	var sb strings.Builder
	for i, part := range parts {
		switch {
		case i > 0 && isIndex(part):
			sb.WriteString("[" + part + "]")
		case i > 0:
			sb.WriteString("." + part)
		default:
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
