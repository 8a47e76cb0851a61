package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/namespace"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Prefix string
	Arrays bool
}

// InspectEntity describes how one declaration maps to Java.
type InspectEntity struct {
	Entity        string          `json:"entity"`
	Kind          string          `json:"kind"`
	Namespace     string          `json:"namespace"`
	Name          string          `json:"name"`
	Path          string          `json:"path"`
	Members       []InspectMember `json:"members,omitempty"`
	Values        []string        `json:"values,omitempty"` // enumerators or bits, in order
	Discriminator string          `json:"discriminator,omitempty"`
	Aliased       string          `json:"aliased,omitempty"`
}

// InspectMember is a struct member or union case.
type InspectMember struct {
	Name     string `json:"name"`
	IDLType  string `json:"idl_type"`
	JavaType string `json:"java_type"`
	Labels   string `json:"labels,omitempty"` // union cases only
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <tree>",
		Short: "Show how each declaration maps to Java",
		Long: `List every declaration of a type tree with its kind, Java package, output
path and the Java type of each member, without generating anything.

Examples:
  idlbind inspect shapes.cue
  idlbind inspect shapes.yaml --prefix com.acme --arrays --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "namespace prefix prepended to every package")
	cmd.Flags().BoolVar(&opts.Arrays, "arrays", false, "map sequences to arrays instead of java.util.List")

	return cmd
}

func runInspect(opts *InspectOptions, treePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	res, err := mustLoadTree(formatter, treePath)
	if err != nil {
		return err
	}

	entities := InspectTree(res.Tree, emit.Options{
		NamespacePrefix: strings.Trim(opts.Prefix, "."),
		UseArrays:       opts.Arrays,
	})

	if formatter.JSON() {
		return formatter.Success(entities)
	}
	writeInspect(formatter, entities)
	return nil
}

// InspectTree describes every non-module declaration of tree in emission order.
func InspectTree(tree *ir.Tree, opts emit.Options) []InspectEntity {
	em := emit.New(opts, nil)
	mapper := em.Mapper()
	javaType := func(t ir.Type) string {
		name, _ := mapper.Map(t, false)
		return name
	}

	entities := []InspectEntity{}
	tree.Walk(func(def ir.Definition) bool {
		if def.Kind() == ir.KindModule {
			return true
		}
		ns := em.Namespace(def)
		name := em.Name(def)
		e := InspectEntity{
			Entity:    ir.ScopedName(def.Declaration()),
			Kind:      def.Kind().String(),
			Namespace: ns,
			Name:      name,
			Path:      namespace.UnitPath(ns, name, emit.Extension),
		}
		switch d := def.(type) {
		case *ir.Struct:
			for i, m := range d.Members {
				e.Members = append(e.Members, InspectMember{
					Name:     memberLabel(m, i),
					IDLType:  mapper.Describe(m.Type),
					JavaType: javaType(m.Type),
				})
			}
		case *ir.Union:
			e.Discriminator = mapper.Describe(d.Discriminant)
			for i, c := range d.Cases {
				e.Members = append(e.Members, InspectMember{
					Name:     memberLabel(c.Member, i),
					IDLType:  mapper.Describe(c.Member.Type),
					JavaType: javaType(c.Member.Type),
					Labels:   caseLabels(c),
				})
			}
		case *ir.Enum:
			for _, en := range d.Enumerators {
				e.Values = append(e.Values, en.Name)
			}
		case *ir.Bitmask:
			e.Values = append(e.Values, d.Bits...)
		case *ir.Typedef:
			e.Aliased = javaType(d.Aliased)
		}
		entities = append(entities, e)
		return true
	})
	return entities
}

func memberLabel(m *ir.Member, index int) string {
	if m.Name == "" {
		return fmt.Sprintf("member%d", index)
	}
	return m.Name
}

func caseLabels(c *ir.Case) string {
	parts := make([]string, 0, len(c.Labels)+1)
	for _, l := range c.Labels {
		parts = append(parts, strconv.FormatInt(l, 10))
	}
	if c.IsDefault {
		parts = append(parts, "default")
	}
	return strings.Join(parts, ", ")
}

func writeInspect(formatter *OutputFormatter, entities []InspectEntity) {
	w := formatter.Writer
	if len(entities) == 0 {
		fmt.Fprintln(w, "No declarations.")
		return
	}
	for _, e := range entities {
		fmt.Fprintf(w, "%s %s\n", kindStyle.Render(fmt.Sprintf("%-8s", e.Kind)), titleStyle.Render(e.Entity))
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("         %s -> %s", namespace.Qualified(e.Namespace, e.Name), e.Path)))
		if e.Discriminator != "" {
			fmt.Fprintf(w, "         switch (%s)\n", e.Discriminator)
		}
		for _, m := range e.Members {
			if m.Labels != "" {
				fmt.Fprintf(w, "         case %s: %s %s  (%s)\n", m.Labels, m.JavaType, m.Name, m.IDLType)
				continue
			}
			fmt.Fprintf(w, "         %s %s  (%s)\n", m.JavaType, m.Name, m.IDLType)
		}
		if len(e.Values) > 0 {
			fmt.Fprintf(w, "         %s\n", strings.Join(e.Values, ", "))
		}
		if e.Aliased != "" {
			fmt.Fprintf(w, "         = %s\n", e.Aliased)
		}
	}
}
