package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/testutil"
)

// writeTree writes a tree document into a fresh temporary directory and
// returns its path.
func writeTree(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func shapesTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, "shapes.yaml", testutil.ShapesYAML)
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const brokenTreeYAML = `ir_version: "1.0.0"
definitions:
  - kind: module
    name: shapes
    definitions:
      - kind: struct
        name: Outline
        members:
          - { name: polygon, type: Polygon }
`

const recursiveTreeYAML = `ir_version: "1.0.0"
definitions:
  - kind: module
    name: tree
    definitions:
      - kind: struct
        name: Node
        members:
          - { name: value, type: long }
          - { name: children, type: "sequence<Node>" }
`

// runtimeClashYAML declares a struct where the generated WireBuffer goes.
const runtimeClashYAML = `ir_version: "1.0.0"
definitions:
  - kind: module
    name: idlbind
    definitions:
      - kind: module
        name: runtime
        definitions:
          - kind: struct
            name: WireBuffer
            members:
              - { name: size, type: long }
`
