// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"github.com/RealBurst/unrar5j"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/term"
)

type CommonFlags struct {
	Concurrency int  `subcmd:"concurrency,4,'concurrency for decoding independent solid chains'"`
	Verbose     bool `subcmd:"verbose,false,verbose debug/trace information"`
}

type extractFlags struct {
	CommonFlags
	Password    string `subcmd:"password,,'password for an encrypted archive'"`
	ProgressBar bool   `subcmd:"progress,true,display a progress bar"`
}

type listFlags struct{}

var cmdSet *subcmd.CommandSet

func init() {
	defaultConcurrency := map[string]interface{}{
		"concurrency": runtime.GOMAXPROCS(-1),
	}

	extractCmd := subcmd.NewCommand("extract",
		subcmd.MustRegisterFlagStruct(&extractFlags{}, defaultConcurrency, nil),
		extract, subcmd.ExactlyNumArguments(2))
	extractCmd.Document(`extract a RAR5 archive's members into a destination directory. The archive may be local, on S3 or a URL.`)

	listCmd := subcmd.NewCommand("list",
		subcmd.MustRegisterFlagStruct(&listFlags{}, nil, nil),
		list, subcmd.ExactlyNumArguments(1))
	listCmd.Document(`list the extractable member names in a RAR5 archive without extracting them.`)

	cmdSet = subcmd.NewCommandSet(extractCmd, listCmd)
	cmdSet.Document(`extract and inspect RAR5 archives. Archives may be local, on S3 or a URL.`)

	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(
			s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

func list(ctx context.Context, values interface{}, args []string) error {
	a, err := unrar5j.Open(ctx, args[0])
	if err != nil {
		return err
	}
	for _, name := range a.Names() {
		fmt.Println(name)
	}
	return nil
}

func progressDisplay(ctx context.Context, ch chan unrar5j.Progress, total int64) {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false))
	bar.RenderBlank()
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return
			}
			bar.Set64(p.Done)
			if p.Done == p.Total {
				fmt.Fprintln(os.Stderr)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func extract(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cl := values.(*extractFlags)
	cmdutil.HandleSignals(cancel, os.Interrupt)

	a, err := unrar5j.Open(ctx, args[0])
	if err != nil {
		return err
	}
	destDir := args[1]

	opts := []unrar5j.Option{
		unrar5j.WithConcurrency(cl.Concurrency),
		unrar5j.WithVerbose(cl.Verbose),
	}
	if cl.Password != "" {
		opts = append(opts, unrar5j.WithPassword(cl.Password))
	}

	var progressCh chan unrar5j.Progress
	if cl.ProgressBar && term.IsTerminal(int(os.Stderr.Fd())) {
		progressCh = make(chan unrar5j.Progress, cl.Concurrency)
		opts = append(opts, unrar5j.WithProgress(progressCh))
		go progressDisplay(ctx, progressCh, int64(len(a.Names())))
	}

	res, err := a.Extract(ctx, destDir, opts...)
	if progressCh != nil {
		close(progressCh)
	}
	for _, fe := range res.Failed {
		fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", fe.Name, fe.Kind)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "extracted %d file(s)\n", len(res.Extracted))
	return nil
}
