package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"designer-pro/canvas"
	"designer-pro/client"
	"designer-pro/core"
	"designer-pro/designer"
	"designer-pro/handlers/auth"
	"designer-pro/render"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type app struct {
	server string
	token  string
	out    io.Writer
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "render":
		return a.render(ctx, args)
	case "templates":
		return a.templates(args)
	case "token":
		return a.mintToken(args)
	case "list":
		return a.list(ctx)
	case "save":
		return a.save(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "export":
		return a.export(ctx, args)
	case "share":
		return a.share(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// session connects a designer session to the backend.
func (a *app) session() (*designer.Session, *client.Client, error) {
	c, err := client.New(a.server, client.WithToken(a.token))
	if err != nil {
		return nil, nil, err
	}
	s := designer.New(designer.Config{
		Designs:  c,
		Uploads:  c,
		Photos:   designer.PhotoSearchFunc(c.SearchImages),
		Settings: c,
		Loader:   render.NewLoader(render.WithBaseURL(c.BaseURL())),
		Notifier: designer.LogNotifier{},
	})
	return s, c, nil
}

// readDesign decodes a design file. YAML is accepted for hand-written
// files and goes through the JSON codec so element types resolve the same.
func readDesign(path string) (*core.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
	}
	var in core.DesignInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return core.NewDesign("", in), nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) render(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	in := fs.String("in", "", "Design file (.json, .yaml).")
	out := fs.String("out", "", "Output PNG path. Defaults to the design name.")
	template := fs.String("template", "", "Start from a template instead of a file.")
	base := fs.String("base", "", "Base URL for relative image sources.")
	timeout := fs.Duration("image-timeout", render.DefaultImageTimeout, "Per-image load timeout.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" && *template == "" {
		return errors.New("render: -in or -template is required")
	}

	var opts []render.LoaderOption
	if *base != "" {
		u, err := url.Parse(*base)
		if err != nil {
			return fmt.Errorf("render: base URL: %w", err)
		}
		opts = append(opts, render.WithBaseURL(u))
	}
	s := designer.New(designer.Config{
		Loader: render.NewLoader(opts...),
		Export: []render.Option{render.WithImageTimeout(*timeout)},
	})

	if *in != "" {
		d, err := readDesign(*in)
		if err != nil {
			return err
		}
		s.Load(d)
	} else if err := s.ApplyTemplate(*template); err != nil {
		return err
	}

	var name string
	var res render.Result
	path := *out
	if path == "" {
		path = "design.png"
	}
	err := writeFile(path, func(w io.Writer) error {
		var err error
		name, res, err = s.Export(ctx, w)
		return err
	})
	if err != nil {
		return err
	}
	if *out == "" && name != path {
		if err := os.Rename(path, name); err != nil {
			return err
		}
		path = name
	}
	fmt.Fprintf(a.out, "wrote %s (%dx%d, %d painted, %d skipped)\n", path, res.Width, res.Height, res.Painted, len(res.Skipped))
	for _, sk := range res.Skipped {
		fmt.Fprintf(a.out, "  skipped %q: %v\n", sk.Src, sk.Err)
	}
	return nil
}

func (a *app) templates(args []string) error {
	fs := flag.NewFlagSet("templates", flag.ContinueOnError)
	file := fs.String("file", os.Getenv("TEMPLATES_FILE"), "Extra templates YAML.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file != "" {
		if err := canvas.LoadTemplates(*file); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tBACKGROUND")
	for _, t := range canvas.Templates() {
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\n", t.Name, t.Width, t.Height, t.Background)
	}
	return tw.Flush()
}

func (a *app) mintToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "Subject (user id).")
	name := fs.String("name", "", "Display name.")
	email := fs.String("email", "", "Email.")
	role := fs.String("role", string(core.RoleAdmin), "Role claim.")
	ttl := fs.Duration("ttl", auth.DefaultTokenTTL, "Token lifetime.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return errors.New("token: -sub is required")
	}
	auth.InitAuth()
	tok, err := auth.CreateJWT(&core.User{Subject: *sub, Name: *name, Email: *email, Role: core.Role(*role)}, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}

func (a *app) list(ctx context.Context) error {
	s, _, err := a.session()
	if err != nil {
		return err
	}
	ds, err := s.Designs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tELEMENTS\tCREATED")
	for _, d := range ds {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n", d.ID, d.Name, d.CanvasSize.Width, d.CanvasSize.Height,
			len(d.Elements), d.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) save(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	in := fs.String("in", "", "Design file (.json, .yaml).")
	name := fs.String("name", "", "Design name. Defaults to the name in the file.")
	bg := fs.String("background", "", "Upload this image as the canvas background first.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("save: -in is required")
	}
	d, err := readDesign(*in)
	if err != nil {
		return err
	}
	s, _, err := a.session()
	if err != nil {
		return err
	}
	s.Load(d)
	if *bg != "" {
		f, err := os.Open(*bg)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := s.UploadBackground(ctx, filepath.Base(*bg), f); err != nil {
			return err
		}
	}
	if *name == "" {
		*name = d.Name
	}
	saved, err := s.Save(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, saved.ID)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "Design id.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("delete: -id is required")
	}
	s, _, err := a.session()
	if err != nil {
		return err
	}
	return s.Delete(ctx, *id)
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	query := fs.String("q", "", "Search query.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, _, err := a.session()
	if err != nil {
		return err
	}
	photos, err := s.Search(ctx, *query)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDESCRIPTION\tURL")
	for _, p := range photos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Description, p.FullURL)
	}
	return tw.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	id := fs.String("id", "", "Design id.")
	out := fs.String("out", "", "Output PNG path. Defaults to the design name.")
	remote := fs.Bool("remote", false, "Render on the server instead of locally.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("export: -id is required")
	}
	s, c, err := a.session()
	if err != nil {
		return err
	}

	if *remote {
		path := *out
		if path == "" {
			path = *id + ".png"
		}
		if err := writeFile(path, func(w io.Writer) error { return c.ExportDesign(ctx, *id, w) }); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "wrote %s\n", path)
		return nil
	}

	if err := s.Open(ctx, *id); err != nil {
		return err
	}
	path := *out
	var res render.Result
	var name string
	tmp := path
	if tmp == "" {
		tmp = *id + ".png"
	}
	err = writeFile(tmp, func(w io.Writer) error {
		var err error
		name, res, err = s.Export(ctx, w)
		return err
	})
	if err != nil {
		return err
	}
	if path == "" {
		if err := os.Rename(tmp, name); err != nil {
			return err
		}
		tmp = name
	}
	logrus.WithFields(logrus.Fields{"design_id": *id, "skipped": len(res.Skipped)}).Debug("Exported design")
	fmt.Fprintf(a.out, "wrote %s (%d skipped)\n", tmp, len(res.Skipped))
	return nil
}

func (a *app) share(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("share", flag.ContinueOnError)
	platform := fs.String("platform", "facebook", "facebook or instagram.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, _, err := a.session()
	if err != nil {
		return err
	}
	link, err := s.ShareTarget(ctx, *platform)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	return nil
}
