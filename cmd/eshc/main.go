// Command eshc is the compiler CLI: compile/assemble/template/disassemble/
// detemplate subcommands matching original_source/esh/src/bin/esh.rs's
// argument shape, rebuilt on spf13/cobra the way the teacher's cli/main.go
// builds its root command.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eshc-lang/eshc/internal/asmtext"
	"github.com/eshc-lang/eshc/internal/binfmt"
	"github.com/eshc-lang/eshc/internal/cliutil"
	"github.com/eshc-lang/eshc/internal/codeclient"
	"github.com/eshc-lang/eshc/internal/config"
	"github.com/eshc-lang/eshc/internal/detemplater"
	"github.com/eshc-lang/eshc/internal/instr"
	"github.com/eshc-lang/eshc/internal/lower"
	"github.com/eshc-lang/eshc/internal/optimizer"
	"github.com/eshc-lang/eshc/internal/parser"
	"github.com/eshc-lang/eshc/internal/templater"
	"github.com/eshc-lang/eshc/internal/watch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool
	var configPath string

	root := &cobra.Command{
		Use:           "eshc",
		Short:         "Compiles .esh source into block-runtime instruction templates",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")
	root.PersistentFlags().StringVar(&configPath, "config", ".eshc.json", "path to project config")

	root.AddCommand(
		newCompileCmd(&noColor, &configPath),
		newAssembleCmd(&noColor),
		newTemplateCmd(&noColor),
		newDisassembleCmd(),
		newDetemplateCmd(),
	)
	return root
}

func loadOptionalConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		return &config.Config{OutputFormat: config.FormatBin}
	}
	return cfg
}

func newCompileCmd(noColor *bool, configPath *string) *cobra.Command {
	var dfaOut, dfbinOut string
	var place bool
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "compile <input.esh> [dfa_out] [dfbin_out]",
		Short: "Compiles an esh file into .dfa and .dfbin",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if len(args) > 1 {
				dfaOut = args[1]
			}
			if len(args) > 2 {
				dfbinOut = args[2]
			}
			cfg := loadOptionalConfig(*configPath)

			compile := func() error {
				return runCompile(input, dfaOut, dfbinOut, place, cfg, *noColor)
			}

			if !watchFlag {
				return compile()
			}
			return watch.Run(cmd.Context(), input, compile, func(err error) {
				fmt.Fprintln(os.Stderr, cliutil.Colorize(err.Error(), cliutil.ColorRed, !*noColor))
			})
		},
	}
	cmd.Flags().BoolVarP(&place, "place", "c", false, "place the templates using the CodeClient API")
	cmd.Flags().BoolVar(&watchFlag, "watch", false, "recompile on every save")
	return cmd
}

func runCompile(input, dfaOut, dfbinOut string, place bool, cfg *config.Config, noColor bool) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	p, err := parser.New(string(src))
	if err != nil {
		return reportErr(err, noColor)
	}
	prog, err := p.Parse()
	if err != nil {
		return reportErr(err, noColor)
	}

	buf, err := lower.Lower(prog)
	if err != nil {
		return err
	}

	settings := optimizer.Settings{RemoveEndReturns: cfg.RemoveEndReturns}
	if cfg.MaxCodeblocksPerLine != nil {
		settings.MaxCodeblocksPerLine = cfg.MaxCodeblocksPerLine
	}
	opt := optimizer.New(buf, settings)
	if err := opt.Optimize(); err != nil {
		return reportErr(err, noColor)
	}

	flat := buf.Flush()
	if dfaOut != "" {
		if err := os.WriteFile(dfaOut, []byte(asmtext.Disassemble(flat)), 0o644); err != nil {
			return err
		}
	}

	binData, err := binfmt.Encode(buf)
	if err != nil {
		return err
	}
	if dfbinOut != "" {
		if err := os.WriteFile(dfbinOut, binData, 0o644); err != nil {
			return err
		}
	}

	if place {
		set := templater.Pack(buf)
		return codeclient.Deliver(context.Background(), cfg.CodeClientAddr, templateTexts(set))
	}
	return nil
}

func templateTexts(set *templater.Set) []string {
	out := make([]string, len(set.Templates))
	for i, tpl := range set.Templates {
		out[i] = asmtext.Disassemble(tpl.Instructions)
	}
	return out
}

func newAssembleCmd(noColor *bool) *cobra.Command {
	var place bool
	cmd := &cobra.Command{
		Use:   "assemble <input.dfa> [output.dfbin]",
		Short: "Assembles a .dfa file into .dfbin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			flat, err := asmtext.Assemble(string(src))
			if err != nil {
				return reportErr(err, *noColor)
			}
			buf, err := instr.ParseBuffer(flat)
			if err != nil {
				return err
			}
			data, err := binfmt.Encode(buf)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if err := os.WriteFile(args[1], data, 0o644); err != nil {
					return err
				}
			} else if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
			if place {
				set := templater.Pack(buf)
				return codeclient.Deliver(context.Background(), "", templateTexts(set))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&place, "place", "c", false, "place the templates using the CodeClient API")
	return cmd
}

func newTemplateCmd(noColor *bool) *cobra.Command {
	var place bool
	cmd := &cobra.Command{
		Use:   "template <input.dfbin> [output.txt]",
		Short: "Templatizes a .dfbin file into code templates",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			buf, err := binfmt.Decode(data)
			if err != nil {
				return err
			}
			set := templater.Pack(buf)
			texts := templateTexts(set)
			out := strings.Join(texts, "\n\n")

			if place {
				if err := codeclient.Deliver(context.Background(), "", texts); err != nil {
					return err
				}
			}
			if len(args) == 2 {
				return os.WriteFile(args[1], []byte(out), 0o644)
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&place, "place", "c", false, "place the templates using the CodeClient API")
	return cmd
}

func newDisassembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disassemble <input.dfbin> [dfa_out]",
		Short: "Disassembles a .dfbin file into a .dfa file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			buf, err := binfmt.Decode(data)
			if err != nil {
				return err
			}
			text := asmtext.Disassemble(buf.Flush())
			if len(args) == 2 {
				return os.WriteFile(args[1], []byte(text), 0o644)
			}
			fmt.Print(text)
			return nil
		},
	}
}

func newDetemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detemplate <templates_in> <dfbin_out>",
		Short: "Detemplatizes a bunch of templates into .dfbin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			blocks := strings.Split(string(raw), "\n\n")
			set := &templater.Set{}
			for i, block := range blocks {
				block = strings.TrimSpace(block)
				if block == "" {
					continue
				}
				flat, err := asmtext.Assemble(block)
				if err != nil {
					return fmt.Errorf("detemplate: template %d: %w", i, err)
				}
				id := fmt.Sprintf("tpl_%d", i)
				set.Templates = append(set.Templates, templater.Template{ID: id, Instructions: flat})
				set.Order = append(set.Order, id)
			}
			buf, err := detemplater.Unpack(set)
			if err != nil {
				return err
			}
			data, err := binfmt.Encode(buf)
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}
}

func reportErr(err error, noColor bool) error {
	return fmt.Errorf("%s", cliutil.Colorize(err.Error(), cliutil.ColorRed, !noColor))
}
