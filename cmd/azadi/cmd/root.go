// Copyright 2026 The Azadi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd builds the azadi command-line surface: a root command that
// runs the full macro+tangle pipeline, plus expand and tangle subcommands
// that each run a single stage. See SPEC_FULL.md §4.8/§6.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/azadi-lang/azadi/internal/azlog"
	"github.com/azadi-lang/azadi/internal/clierr"
	"github.com/azadi-lang/azadi/internal/config"
	"github.com/azadi-lang/azadi/internal/pipeline"
)

// flagSet mirrors options.rs's Args: every flag the pipeline needs,
// shared by the root command and its expand/tangle subcommands.
type flagSet struct {
	inputDir  string
	outputDir string
	special   string
	workDir   string
	saveMacro bool
	include   string
	pathsep   string

	openDelim      string
	closeDelim     string
	chunkEnd       string
	commentMarkers string
	chunks         string

	pydef   bool
	dumpAST bool

	configPath string
	logLevel   string
}

func addCommonFlags(c *cobra.Command, f *flagSet) {
	defaults := pipeline.DefaultOptions()
	fl := c.Flags()
	fl.StringVar(&f.inputDir, "input-dir", defaults.InputDir, "base directory for resolving input files")
	fl.StringVar(&f.outputDir, "output-dir", defaults.OutputDir, "directory for output files")
	fl.StringVar(&f.special, "special", string(defaults.Special), "special character for macro syntax")
	fl.StringVar(&f.workDir, "work-dir", defaults.WorkDir, "directory for staging and backup files")
	fl.BoolVar(&f.saveMacro, "save-macro", false, "retain intermediate macro-stage output")
	fl.StringVar(&f.include, "include", defaults.Include, "pathsep-separated list of include paths")
	fl.StringVar(&f.pathsep, "pathsep", defaults.Pathsep, "path separator character for --include")
	fl.StringVar(&f.openDelim, "open-delim", defaults.OpenDelim, "opening delimiter for chunk definitions")
	fl.StringVar(&f.closeDelim, "close-delim", defaults.CloseDelim, "closing delimiter for chunk definitions")
	fl.StringVar(&f.chunkEnd, "chunk-end", defaults.ChunkEnd, "marker that ends a chunk definition")
	fl.StringVar(&f.commentMarkers, "comment-markers", defaults.CommentMarkers, "comma-separated comment markers")
	fl.StringVar(&f.chunks, "chunks", "", "comma-separated chunk names to emit to stdout instead of writing files")
	fl.BoolVar(&f.pydef, "pydef", false, "enable Python macro definitions")
	fl.BoolVar(&f.dumpAST, "dump-ast", false, "parse input and emit its AST instead of expanding it")
	fl.StringVar(&f.configPath, "config", "", "path to azadi.toml (default: ./azadi.toml if present)")
	fl.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

// resolveOptions merges cmd's flags with an optional azadi.toml: a flag
// explicitly passed on the command line always wins; azadi.toml only
// supplies values for flags left at their default.
func resolveOptions(cmd *cobra.Command, f *flagSet, files []string) (pipeline.Options, error) {
	file, err := config.LoadNearest(f.configPath)
	if err != nil {
		return pipeline.Options{}, err
	}
	changed := cmd.Flags().Changed

	opts := pipeline.DefaultOptions()
	opts.Files = files

	applyFlagOrFile(&opts.InputDir, f.inputDir, changed("input-dir"), fileStrField(file, func(c *config.File) *string { return c.InputDir }))
	applyFlagOrFile(&opts.OutputDir, f.outputDir, changed("output-dir"), fileStrField(file, func(c *config.File) *string { return c.OutputDir }))
	applyFlagOrFile(&opts.WorkDir, f.workDir, changed("work-dir"), fileStrField(file, func(c *config.File) *string { return c.WorkDir }))
	applyFlagOrFile(&opts.Include, f.include, changed("include"), fileStrField(file, func(c *config.File) *string { return c.Include }))
	applyFlagOrFile(&opts.Pathsep, f.pathsep, changed("pathsep"), fileStrField(file, func(c *config.File) *string { return c.Pathsep }))
	applyFlagOrFile(&opts.OpenDelim, f.openDelim, changed("open-delim"), fileStrField(file, func(c *config.File) *string { return c.OpenDelim }))
	applyFlagOrFile(&opts.CloseDelim, f.closeDelim, changed("close-delim"), fileStrField(file, func(c *config.File) *string { return c.CloseDelim }))
	applyFlagOrFile(&opts.ChunkEnd, f.chunkEnd, changed("chunk-end"), fileStrField(file, func(c *config.File) *string { return c.ChunkEnd }))
	applyFlagOrFile(&opts.CommentMarkers, f.commentMarkers, changed("comment-markers"), fileStrField(file, func(c *config.File) *string { return c.CommentMarkers }))

	special := f.special
	if !changed("special") {
		if s := fileStrField(file, func(c *config.File) *string { return c.Special }); s != nil && *s != "" {
			special = *s
		}
	}
	if special != "" {
		opts.Special = []rune(special)[0]
	}

	opts.Chunks = f.chunks
	opts.Pydef = f.pydef || (!changed("pydef") && file != nil && file.Pydef != nil && *file.Pydef)
	opts.SaveMacro = f.saveMacro || (!changed("save-macro") && file != nil && file.SaveMacro != nil && *file.SaveMacro)
	opts.DumpAST = f.dumpAST || (!changed("dump-ast") && file != nil && file.DumpAST != nil && *file.DumpAST)

	return opts, nil
}

func fileStrField(file *config.File, get func(*config.File) *string) *string {
	if file == nil {
		return nil
	}
	return get(file)
}

// applyFlagOrFile sets *dst to flagVal if the flag was explicitly passed
// or there is no file override; otherwise the file value wins.
func applyFlagOrFile(dst *string, flagVal string, flagChanged bool, fileVal *string) {
	if !flagChanged && fileVal != nil {
		*dst = *fileVal
		return
	}
	*dst = flagVal
}

// NewRootCmd builds the azadi command tree.
func NewRootCmd() *cobra.Command {
	f := &flagSet{}

	root := &cobra.Command{
		Use:   "azadi <files...>",
		Short: "Expand macros and tangle noweb chunks",
		Long: `azadi processes input files through macro expansion and literate-programming
chunk resolution, writing generated files through a safe, externally-modification-detecting
writer.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cmd, f, args)
			if err != nil {
				return err
			}
			log := azlog.New("azadi", f.logLevel)
			return pipeline.Run(opts, log)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCommonFlags(root, f)

	root.AddCommand(newExpandCmd())
	root.AddCommand(newTangleCmd())

	return root
}

func newExpandCmd() *cobra.Command {
	f := &flagSet{}
	cmd := &cobra.Command{
		Use:   "expand <files...>",
		Short: "Run the macro stage only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cmd, f, args)
			if err != nil {
				return err
			}
			opts.MacroOnly = true
			log := azlog.New("azadi-expand", f.logLevel)
			return pipeline.Run(opts, log)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCommonFlags(cmd, f)
	return cmd
}

func newTangleCmd() *cobra.Command {
	f := &flagSet{}
	cmd := &cobra.Command{
		Use:   "tangle <files...>",
		Short: "Run the noweb stage only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cmd, f, args)
			if err != nil {
				return err
			}
			opts.NowebOnly = true
			log := azlog.New("azadi-tangle", f.logLevel)
			return pipeline.Run(opts, log)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCommonFlags(cmd, f)
	return cmd
}

// Execute runs the root command and returns the process exit code,
// rendering any error to stderr via internal/clierr.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	return clierr.Report(err)
}
