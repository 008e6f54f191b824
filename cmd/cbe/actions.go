package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cbe/block"
	"cbe/builder"
	"cbe/config"
	"cbe/document"
	"cbe/dom"
	"cbe/export"
	"cbe/replay"
	"cbe/state"
	"cbe/store"
)

func openStore(cmd *cli.Command, env *state.LocalEnv) (*store.Store, error) {
	path := cmd.String("store")
	if path == "" {
		path = env.Cfg.Store.Path
	}
	return store.Open(path, env.Log)
}

func readBlocks(path string) ([]block.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	blocks, err := document.UnmarshalBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode document %s: %w", path, err)
	}
	return blocks, nil
}

func encodeBlocks(blocks []block.Block, format string) ([]byte, error) {
	switch format {
	case "", "json":
		return document.MarshalBlocks(blocks)
	case "ion":
		return document.MarshalIon(blocks)
	}
	return nil, fmt.Errorf("unsupported serialization format %q", format)
}

// writeOutput writes data to named file or to STDOUT when name is empty.
func writeOutput(name string, data []byte, overwrite bool) error {
	if name == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if _, err := os.Stat(name); err == nil && !overwrite {
		return fmt.Errorf("output file already exists: %s", name)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

func renderDocument(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	var (
		blocks []block.Block
		err    error
		src    string
		dst    string
	)
	if name := cmd.String("from-store"); name != "" {
		st, err := openStore(cmd, env)
		if err != nil {
			return err
		}
		defer st.Close()
		if blocks, err = st.Load(ctx, name); err != nil {
			return err
		}
		src, dst = name, cmd.Args().Get(0)
	} else {
		if src = cmd.Args().Get(0); src == "" {
			return errors.New("no SOURCE has been specified")
		}
		if blocks, err = readBlocks(src); err != nil {
			return err
		}
		dst = cmd.Args().Get(1)
	}

	title := cmd.String("title")
	if title == "" {
		title = env.Cfg.Editor.DocumentTitle
	}
	doc, err := export.XHTML(blocks, title, nil)
	if err != nil {
		return err
	}

	if dst == "" {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		name, err := export.OutputName(env.Cfg.Editor.OutputNameTemplate, export.NewValues(title, src, ".xhtml", len(blocks)))
		if err != nil {
			return fmt.Errorf("unable to prepare output name: %w", err)
		}
		dst = filepath.Join(dst, name)
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("unable to serialize XHTML: %w", err)
	}
	if err := writeOutput(dst, data, cmd.Bool("overwrite")); err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.Store("output/"+filepath.Base(dst), dst)
	}
	env.Log.Info("Document exported", zap.String("source", src), zap.String("to", dst), zap.Int("blocks", len(blocks)))
	return nil
}

// keepPreview finishes uploads locally, preview data URI becomes image
// source.
func keepPreview(_ context.Context, _ []byte, preview string) (builder.Image, error) {
	return builder.Image{Src: preview}, nil
}

func replaySession(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	name := cmd.Args().Get(0)
	if name == "" {
		return errors.New("no SCRIPT has been specified")
	}
	load := replay.Load
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		load = replay.LoadBundle
	}
	script, err := load(name)
	if err != nil {
		return err
	}
	format := cmd.String("format")
	if _, err := encodeBlocks(nil, format); err != nil {
		return err
	}

	var st *store.Store
	if cmd.String("load") != "" || cmd.String("save") != "" {
		if st, err = openStore(cmd, env); err != nil {
			return err
		}
		defer st.Close()
	}

	hub := dom.NewHub()
	b, err := builder.New(&env.Cfg.Editor, nil, env.Log,
		builder.WithWatcher(hub),
		builder.WithUploader(keepPreview),
		builder.WithChangeListener(func(blocks []block.Block) {
			env.Log.Debug("Document changed", zap.Int("blocks", len(blocks)))
		}),
	)
	if err != nil {
		return err
	}
	defer b.Close()

	if from := cmd.String("load"); from != "" {
		blocks, err := st.Load(ctx, from)
		if err != nil {
			return err
		}
		if err := b.Load(blocks); err != nil {
			return fmt.Errorf("unable to load %s: %w", from, err)
		}
	}

	start := time.Now()
	runErr := replay.NewRunner(b, hub, env.Log, replay.WithPlaceholder(env.PlaceholderImage)).Run(ctx, script)
	blocks := b.Serialize()
	env.Log.Info("Script replayed", zap.String("script", name), zap.Int("steps", len(script.Steps)), zap.Int("blocks", len(blocks)), zap.Duration("elapsed", time.Since(start)))

	if env.Rpt != nil {
		env.Rpt.StoreData("replay/document.txt", []byte(b.Document().String()))
	}
	env.Snapshot("replay/blocks.json", blocks)
	if to := cmd.String("save"); to != "" {
		if err := st.Save(ctx, to, blocks); err != nil {
			return err
		}
	}
	data, err := encodeBlocks(blocks, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.Args().Get(1), data, cmd.Bool("overwrite")); err != nil {
		return err
	}
	return runErr
}

func saveDocument(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	src, name := cmd.Args().Get(0), cmd.Args().Get(1)
	if src == "" || name == "" {
		return errors.New("both SOURCE and NAME are required")
	}
	blocks, err := readBlocks(src)
	if err != nil {
		return err
	}
	st, err := openStore(cmd, env)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, name, blocks); err != nil {
		return err
	}
	env.Log.Info("Document stored", zap.String("name", name), zap.Int("blocks", len(blocks)))
	return nil
}

func loadDocument(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	name := cmd.Args().Get(0)
	if name == "" {
		return errors.New("no NAME has been specified")
	}
	st, err := openStore(cmd, env)
	if err != nil {
		return err
	}
	defer st.Close()
	blocks, err := st.Load(ctx, name)
	if err != nil {
		return err
	}
	data, err := encodeBlocks(blocks, cmd.String("format"))
	if err != nil {
		return err
	}
	return writeOutput(cmd.Args().Get(1), data, true)
}

func listDocuments(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	st, err := openStore(cmd, env)
	if err != nil {
		return err
	}
	defer st.Close()
	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Name, e.Blocks, e.Updated.Format(time.DateTime))
	}
	return w.Flush()
}

func deleteDocument(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	name := cmd.Args().Get(0)
	if name == "" {
		return errors.New("no NAME has been specified")
	}
	st, err := openStore(cmd, env)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Delete(ctx, name); err != nil {
		return err
	}
	env.Log.Info("Document removed", zap.String("name", name))
	return nil
}

func dumpConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	kind, dump := "actual", func() ([]byte, error) { return config.Dump(env.Cfg) }
	if cmd.Bool("default") {
		kind, dump = "default", config.Prepare
	}
	data, err := dump()
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", kind, err)
	}

	dst := cmd.Args().Get(0)
	env.Log.Info("Outputting configuration", zap.String("kind", kind), zap.String("file", cmp.Or(dst, "STDOUT")))
	return writeOutput(dst, data, true)
}
