package cli

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/idlbind/internal/harness"
	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/wire"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Value     string // JSON value
	ValueFile string // file holding the JSON value
}

// CodecResult is the output of encode and decode.
type CodecResult struct {
	Type  string     `json:"type"`
	Hex   string     `json:"hex"`
	Size  int        `json:"size"`
	Value ir.IRValue `json:"value"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <tree> <type>",
		Short: "Encode a JSON value with the reference wire codec",
		Long: `Encode a JSON value of a declared type and print the bytes as hex. The
bytes are what the generated encode method writes for the same value.

Struct values are objects keyed by member name. Union values carry the
discriminator under "$discriminator" and the selected member under its name.
Enum values are enumerator names; bitmask values are lists of bit names.

Examples:
  idlbind encode shapes.cue shapes::Point --value '{"x": 1, "y": 2}'
  idlbind encode shapes.cue shapes::Shape --value '{"$discriminator": "CIRCLE", "circle": {"radius": 1}}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Value, "value", "", "value as JSON")
	cmd.Flags().StringVar(&opts.ValueFile, "value-file", "", "file holding the value as JSON")

	return cmd
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <tree> <type> <hex>",
		Short: "Decode hex bytes with the reference wire codec",
		Long: `Decode bytes of a declared type and print the value as JSON. Whitespace in
the hex argument is ignored, so bytes can be grouped.

Examples:
  idlbind decode shapes.cue shapes::Point "01000000 02000000"`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], args[1], args[2], cmd)
		},
	}
	return cmd
}

func runEncode(opts *EncodeOptions, treePath, typeName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw := []byte(opts.Value)
	switch {
	case opts.Value != "" && opts.ValueFile != "":
		return formatter.fail(ErrCodeValue, "--value and --value-file cannot be combined")
	case opts.ValueFile != "":
		data, err := os.ReadFile(opts.ValueFile)
		if err != nil {
			return formatter.fail(ErrCodeNotFound, fmt.Sprintf("reading value file: %v", err))
		}
		raw = data
	case opts.Value == "":
		return formatter.fail(ErrCodeValue, "a value is required: use --value or --value-file")
	}

	t, err := resolveCodecType(formatter, treePath, typeName)
	if err != nil {
		return err
	}

	value, err := ir.UnmarshalIRValue(raw)
	if err != nil {
		return formatter.fail(ErrCodeValue, fmt.Sprintf("value is not valid JSON: %v", err))
	}
	data, err := wire.Encode(t, value)
	if err != nil {
		return formatter.fail(ErrCodeValue, err.Error())
	}
	formatter.VerboseLog("Encoded %s into %d byte(s)", typeName, len(data))

	return outputCodec(formatter, CodecResult{
		Type:  typeName,
		Hex:   hex.EncodeToString(data),
		Size:  len(data),
		Value: value,
	}, false)
}

func runDecode(opts *RootOptions, treePath, typeName, hexText string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := hex.DecodeString(harness.NormalizeHex(hexText))
	if err != nil {
		return formatter.fail(ErrCodeValue, fmt.Sprintf("invalid hex: %v", err))
	}

	t, err := resolveCodecType(formatter, treePath, typeName)
	if err != nil {
		return err
	}

	value, err := wire.Decode(t, data)
	if err != nil {
		return formatter.fail(ErrCodeValue, err.Error())
	}

	return outputCodec(formatter, CodecResult{
		Type:  typeName,
		Hex:   hex.EncodeToString(data),
		Size:  len(data),
		Value: value,
	}, true)
}

// resolveCodecType loads the tree and finds the named declaration.
func resolveCodecType(formatter *OutputFormatter, treePath, typeName string) (ir.Type, error) {
	res, err := mustLoadTree(formatter, treePath)
	if err != nil {
		return nil, err
	}
	t, err := harness.ResolveType(res.Tree, typeName)
	if err != nil {
		return nil, formatter.fail(ErrCodeNotFound, err.Error())
	}
	return t, nil
}

func outputCodec(formatter *OutputFormatter, result CodecResult, decoded bool) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}
	if !decoded {
		fmt.Fprintln(formatter.Writer, result.Hex)
		return nil
	}
	text, err := ir.MarshalIRValue(result.Value)
	if err != nil {
		return formatter.fail(ErrCodeValue, err.Error())
	}
	fmt.Fprintln(formatter.Writer, string(text))
	return nil
}
