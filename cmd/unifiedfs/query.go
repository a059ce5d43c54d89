package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"unifiedfs/internal/client"
	"unifiedfs/internal/config"
	"unifiedfs/internal/fs"
	"unifiedfs/internal/provider"

	"github.com/fatih/color"
)

var (
	dirColor   = color.New(color.FgBlue, color.Bold)
	imageColor = color.New(color.FgMagenta)
	idColor    = color.New(color.Faint)
	errColor   = color.New(color.FgRed)
)

// queryFlags select between an in-process provider and a running server.
type queryFlags struct {
	commonFlags
	server  string
	timeout time.Duration
}

func (q *queryFlags) register(fset *flag.FlagSet) {
	q.commonFlags.register(fset)
	fset.StringVar(&q.server, "server", "", "Query a running server (e.g. http://127.0.0.1:8750) instead of the local configuration")
	fset.DurationVar(&q.timeout, "timeout", 10*time.Second, "Request timeout when -server is set")
}

func (q *queryFlags) client() *client.Client {
	return client.New(client.Config{BaseURL: q.server, Timeout: q.timeout})
}

func runResolve(args []string) error {
	var q queryFlags
	fset := flag.NewFlagSet("resolve", flag.ContinueOnError)
	q.register(fset)
	authority := fset.String("authority", "", "Authority to resolve against (default provider.authority)")
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "Usage: unifiedfs resolve [flags] <path>...")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return flag.ErrHelp
	}

	cfg, err := q.load()
	if err != nil {
		return err
	}
	if *authority == "" {
		*authority = cfg.Provider.Authority
	}

	resolve, err := resolver(q, cfg)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range fset.Args() {
		uri, err := resolve(*authority, path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "%s\t%s\n", path, errColor.Sprint(err))
			continue
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\n", path, uri)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d paths did not resolve", failed, fset.NArg())
	}
	return nil
}

type resolveFunc func(authority, path string) (string, error)

func resolver(q queryFlags, cfg *config.Config) (resolveFunc, error) {
	if q.server != "" {
		caller := client.NewCaller(q.client())
		return func(authority, path string) (string, error) {
			ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
			defer cancel()
			return caller.GetURIFromFilePath(ctx, authority, path)
		}, nil
	}

	p, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return func(authority, path string) (string, error) {
		res := p.ResolveFile(authority, path)
		if err := res.Err(); err != nil {
			return "", err
		}
		return res.URI, nil
	}, nil
}

func runList(args []string) error {
	var q queryFlags
	fset := flag.NewFlagSet("ls", flag.ContinueOnError)
	q.register(fset)
	showIDs := fset.Bool("ids", false, "Print document IDs next to names")
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "Usage: unifiedfs ls [flags] [document-id | /mount/path]")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() > 1 {
		fset.Usage()
		return flag.ErrHelp
	}

	id := provider.RootID
	if fset.NArg() == 1 {
		id = fset.Arg(0)
	}

	cfg, err := q.load()
	if err != nil {
		return err
	}

	var docs []provider.Document
	switch {
	case q.server != "":
		if strings.HasPrefix(id, "/") {
			return errors.New("mount paths can only be listed without -server")
		}
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		docs, err = q.client().QueryChildDocuments(ctx, id)
	default:
		var p *provider.Provider
		p, err = newProvider(cfg)
		if err == nil {
			docs, err = listLocal(p, id)
		}
	}
	if err != nil {
		if client.IsNotFound(err) || errors.Is(err, provider.ErrNotFound) || errors.Is(err, fs.ErrPathNotFound) {
			return fmt.Errorf("no such document: %s", id)
		}
		return err
	}

	printDocuments(os.Stdout, docs, *showIDs)
	return nil
}

// listLocal lists a document ID, or a path as it appears under the mount.
// A mount path naming a file lists just that file.
func listLocal(p *provider.Provider, target string) ([]provider.Document, error) {
	if !strings.HasPrefix(target, "/") {
		return p.QueryChildDocuments(target)
	}

	doc, err := fs.Resolve(context.Background(), p, fs.NewVirtualPath(target))
	if err != nil {
		return nil, err
	}
	if !doc.IsDir() {
		return []provider.Document{doc}, nil
	}
	logger.Debug("Mount path %s is document %s", target, doc.DocumentID)
	return p.QueryChildDocuments(doc.DocumentID)
}

func printDocuments(w io.Writer, docs []provider.Document, showIDs bool) {
	for _, doc := range docs {
		modified := time.UnixMilli(doc.LastModified).Format("2006-01-02 15:04")

		name := doc.DisplayName
		switch {
		case doc.IsDir():
			name = dirColor.Sprint(name + "/")
		case doc.Flags&provider.FlagSupportsThumbnail != 0:
			name = imageColor.Sprint(name)
		}

		size := "-"
		if !doc.IsDir() {
			size = fmt.Sprintf("%d", doc.Size)
		}

		fmt.Fprintf(w, "%10s  %s  %s", size, modified, name)
		if showIDs {
			fmt.Fprintf(w, "  %s", idColor.Sprint(doc.DocumentID))
		}
		fmt.Fprintln(w)
	}
}
