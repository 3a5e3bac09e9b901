// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/codegangsta/cli"
	shlex "github.com/flynn-archive/go-shlex"
	"github.com/peterh/liner"

	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/fuseadapter"
	"github.com/kernellab/core/internal/hoststatus"
	"github.com/kernellab/core/internal/kernel"
	"github.com/kernellab/core/internal/metrics"
	"github.com/kernellab/core/internal/scheduler"
	"github.com/kernellab/core/internal/trace"
	"github.com/kernellab/core/pkg/blockcache"
	"github.com/kernellab/core/pkg/disk"
	"github.com/kernellab/core/pkg/retry"
)

// boltOpenRetry retries opening a boltdb-backed disk file a handful of
// times with backoff, since a file left locked by a just-exited
// kernelctl process (or a concurrent shell command) usually clears
// within a few hundred milliseconds.
var boltOpenRetry = retry.Retrier{
	MinSleep:      20 * time.Millisecond,
	MaxSleep:      500 * time.Millisecond,
	MaxNumRetries: 6,
}

// sectorCacheEntries is how many decoded sectors CachedDisk keeps warm
// in front of a boltdb-backed disk.
const sectorCacheEntries = 64

var usage = `
	kernelctl drives one simulated machine: a multi-level feedback
	scheduler and a hierarchical persistent file system, both backed by a
	single simulated disk.

	A disk is either a boltdb file on the real filesystem, given with
	--disk, or ephemeral in-memory storage when --disk is omitted. A
	boltdb-backed disk survives across separate kernelctl invocations;
	an in-memory one only survives for the life of one process, so it
	is only useful together with --setup or the shell command.

	Format a disk before using it:

		kernelctl --disk mydisk.db format

	Then create and inspect files against it across invocations:

		kernelctl --disk mydisk.db create /notes
		kernelctl --disk mydisk.db write /notes --file notes.txt
		kernelctl --disk mydisk.db cat /notes
	`

// kernelCli wraps one kernelctl invocation: the cli.App, the lazily
// opened kernel context it operates against, and the optional trace and
// metrics sinks fed from the global flags.
type kernelCli struct {
	app *cli.App

	ctx       *kernel.Context
	d         disk.Disk
	traceLog  *trace.Log
	collector *metrics.Collector
	fuseConn  interface{ Close() error }

	inShell bool
}

func newKernelCli() *kernelCli {
	k := &kernelCli{}
	app := cli.NewApp()
	app.Name = "kernelctl"
	app.Usage = usage
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "disk",
			Usage: "Path to the boltdb-backed simulated disk (omit for an in-memory disk)",
		},
		cli.StringFlag{
			Name:  "tracedb",
			Usage: "Path to a sqlite3 database to persist dispatch events into",
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "Feed scheduler and file-system events into a Prometheus collector",
		},
		cli.StringSliceFlag{
			Name:  "setup",
			Usage: "Command to run before the requested one; repeat the flag to run several",
		},
	}

	pathArg := "<path>"

	app.Commands = []cli.Command{
		{
			Name:      "format",
			Usage:     "Initializes a fresh disk: free map, root directory.",
			ArgsUsage: "",
			Action:    k.cmdFormat,
		},
		{
			Name:      "create",
			Usage:     "Creates a new, empty file.",
			ArgsUsage: pathArg,
			Flags: []cli.Flag{
				cli.IntFlag{Name: "size", Usage: "Initial allocation in bytes", Value: core.SectorSize},
			},
			Action: k.cmdCreate,
		},
		{
			Name:      "mkdir",
			Usage:     "Creates a new, empty directory.",
			ArgsUsage: pathArg,
			Action:    k.cmdMkdir,
		},
		{
			Name:      "ls",
			Usage:     "Lists a directory's contents.",
			ArgsUsage: pathArg,
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "recursive, r", Usage: "Descend into sub-directories"},
			},
			Action: k.cmdList,
		},
		{
			Name:      "rm",
			Usage:     "Removes a file or directory.",
			ArgsUsage: pathArg,
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "recursive, r", Usage: "Required to remove a non-empty directory"},
			},
			Action: k.cmdRemove,
		},
		{
			Name:      "cat",
			Usage:     "Prints a file's contents to stdout.",
			ArgsUsage: pathArg,
			Action:    k.cmdCat,
		},
		{
			Name:      "write",
			Usage:     "Writes a local file's contents into a simulated file at offset 0.",
			ArgsUsage: pathArg,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "file, f", Usage: "Local file to read data from"},
			},
			Action: k.cmdWrite,
		},
		{
			Name:  "run",
			Usage: "Runs a synthetic thread set through the scheduler and prints the dispatch trace.",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "threads", Usage: "Number of synthetic threads", Value: 6},
				cli.IntFlag{Name: "ticks", Usage: "Ticks to simulate", Value: 20000},
			},
			Action: k.cmdRun,
		},
		{
			Name:  "trace",
			Usage: "Queries a sqlite3 dispatch trace database produced by --tracedb.",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "db", Usage: "Path to the sqlite3 database"},
				cli.IntFlag{Name: "limit", Usage: "Number of most recent events to show", Value: 50},
			},
			Action: k.cmdTrace,
		},
		{
			Name:  "status",
			Usage: "Reports host memory/disk pressure alongside the simulated disk's free space.",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "mount", Usage: "Host mount point to report disk usage for", Value: "/"},
			},
			Action: k.cmdStatus,
		},
		{
			Name:  "serve",
			Usage: "Serves the Prometheus metrics collector over HTTP until killed.",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "addr", Usage: "Listen address", Value: ":9100"},
			},
			Action: k.cmdServe,
		},
		{
			Name:      "mount",
			Usage:     "Mounts the file system at a real path via FUSE, for diagnostics only.",
			ArgsUsage: "<mountpoint>",
			Action:    k.cmdMount,
		},
		{
			Name:   "shell",
			Usage:  "Starts an interactive shell for issuing repeated commands against one context.",
			Action: k.cmdShell,
		},
	}
	app.Before = k.beforeSubcommandRun

	for i := range app.Commands {
		app.Commands[i].HelpName = app.Commands[i].Name
	}

	k.app = app
	return k
}

func (k *kernelCli) run(args []string) error {
	return k.app.Run(args)
}

func (k *kernelCli) stop() {
	if k.fuseConn != nil {
		k.fuseConn.Close()
		k.fuseConn = nil
	}
	if k.traceLog != nil {
		k.traceLog.Close()
	}
	if k.d != nil {
		k.d.Close()
	}
}

func (k *kernelCli) beforeSubcommandRun(c *cli.Context) error {
	commands := c.GlobalStringSlice("setup")
	for _, command := range commands {
		log.Infof("running setup command %q", command)
		if err := k.runCommand(c, strings.Fields(command)...); err != nil {
			log.Errorf("setup command failed: %v", err)
			return err
		}
	}
	return nil
}

func (k *kernelCli) runCommand(c *cli.Context, args ...string) error {
	full := []string{"kernelctl"}
	if diskPath := c.GlobalString("disk"); diskPath != "" {
		full = append(full, "--disk", diskPath)
	}
	full = append(full, args...)
	return k.run(full)
}

// eventSink builds the scheduler.EventSink wired from the global
// --tracedb and --metrics flags, lazily creating the trace log and the
// metrics collector the first time either is requested.
func (k *kernelCli) eventSink(c *cli.Context) scheduler.EventSink {
	var sinks kernel.FanOut
	if k.traceLog == nil {
		k.traceLog = trace.NewLog(256, c.GlobalString("tracedb"))
	}
	sinks = append(sinks, k.traceLog)
	if c.GlobalBool("metrics") {
		if k.collector == nil {
			k.collector = metrics.NewCollector()
		}
		sinks = append(sinks, k.collector)
	}
	return sinks
}

// ensureContext opens the kernel context against the disk named by
// --disk (or an in-memory disk if omitted), reusing it across commands
// chained by --setup or typed into the shell. force reformats even if a
// context is already open, which is how the "format" command behaves.
func (k *kernelCli) ensureContext(c *cli.Context, force bool) (*kernel.Context, error) {
	if k.ctx != nil && !force {
		return k.ctx, nil
	}
	if k.ctx != nil && k.d != nil {
		k.d.Close()
		k.ctx = nil
	}

	diskPath := c.GlobalString("disk")
	var d disk.Disk
	if diskPath == "" {
		d = disk.NewMemDisk(core.SectorSize, core.NumSectors)
	} else {
		var bd *disk.BoltDisk
		var openErr error
		success, _ := boltOpenRetry.Do(context.Background(), func(attempt int) bool {
			bd, openErr = disk.OpenBoltDisk(diskPath, core.SectorSize, core.NumSectors)
			if openErr != nil {
				log.Warningf("open %s attempt %d: %v", diskPath, attempt, openErr)
				return false
			}
			return true
		})
		if !success {
			return nil, openErr
		}
		d = disk.NewCachedDisk(bd, blockcache.New(sectorCacheEntries))
	}

	k.d = d
	k.ctx = kernel.New(kernel.DefaultConfig, d, force, k.eventSink(c), nil)
	return k.ctx, nil
}

func (k *kernelCli) cmdFormat(c *cli.Context) {
	if _, err := k.ensureContext(c, true); err != nil {
		log.Errorf("format failed: %v", err)
		return
	}
	log.Infof("formatted, %d free sectors of %d", k.ctx.FS.FreeSectors(), k.ctx.FS.TotalSectors())
}

func (k *kernelCli) cmdCreate(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("create failed: %v", err)
		return
	}
	path := c.Args().First()
	if path == "" {
		log.Errorf("usage: create <path>")
		return
	}
	if cerr := ctx.FS.Create(path, c.Int("size")); cerr != core.NoError {
		log.Errorf("create %s: %s", path, cerr)
		return
	}
	log.Infof("created %s", path)
}

func (k *kernelCli) cmdMkdir(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("mkdir failed: %v", err)
		return
	}
	path := c.Args().First()
	if path == "" {
		log.Errorf("usage: mkdir <path>")
		return
	}
	if cerr := ctx.FS.CreateDirectory(path); cerr != core.NoError {
		log.Errorf("mkdir %s: %s", path, cerr)
		return
	}
	log.Infof("created directory %s", path)
}

func (k *kernelCli) cmdList(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("ls failed: %v", err)
		return
	}
	path := c.Args().First()
	if path == "" {
		path = "/"
	}
	rendered, cerr := ctx.FS.List(path, c.Bool("recursive"))
	if cerr != core.NoError {
		log.Errorf("ls %s: %s", path, cerr)
		return
	}
	fmt.Print(rendered)
}

func (k *kernelCli) cmdRemove(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("rm failed: %v", err)
		return
	}
	path := c.Args().First()
	if path == "" {
		log.Errorf("usage: rm <path>")
		return
	}
	if cerr := ctx.FS.Remove(path, c.Bool("recursive")); cerr != core.NoError {
		log.Errorf("rm %s: %s", path, cerr)
		return
	}
	log.Infof("removed %s", path)
}

func (k *kernelCli) cmdCat(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("cat failed: %v", err)
		return
	}
	path := c.Args().First()
	if path == "" {
		log.Errorf("usage: cat <path>")
		return
	}
	h, cerr := ctx.FS.Open(path)
	if cerr != core.NoError {
		log.Errorf("cat %s: %s", path, cerr)
		return
	}
	buf := make([]byte, h.FileLength())
	n := h.ReadAt(buf, 0)
	os.Stdout.Write(buf[:n])
}

func (k *kernelCli) cmdWrite(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("write failed: %v", err)
		return
	}
	path := c.Args().First()
	if path == "" {
		log.Errorf("usage: write <path> --file <local-file>")
		return
	}
	filename := c.String("file")
	if filename == "" {
		log.Errorf("--file is required")
		return
	}
	data, rerr := ioutil.ReadFile(filename)
	if rerr != nil {
		log.Errorf("couldn't read %s: %v", filename, rerr)
		return
	}
	h, cerr := ctx.FS.Open(path)
	if cerr != core.NoError {
		log.Errorf("write %s: %s", path, cerr)
		return
	}
	h.WriteAt(data, 0)
	log.Infof("wrote %d bytes to %s", len(data), path)
}

func (k *kernelCli) cmdMount(c *cli.Context) {
	ctx, err := k.ensureContext(c, false)
	if err != nil {
		log.Errorf("mount failed: %v", err)
		return
	}
	mountpoint := c.Args().First()
	if mountpoint == "" {
		log.Errorf("usage: mount <mountpoint>")
		return
	}
	conn, merr := fuseadapter.Mount(ctx.FS, mountpoint)
	if merr != nil {
		log.Errorf("mount failed: %v", merr)
		return
	}
	k.fuseConn = conn
	log.Infof("mounted on %s", mountpoint)
}

func (k *kernelCli) cmdTrace(c *cli.Context) {
	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = c.GlobalString("tracedb")
	}
	if dbPath == "" {
		log.Errorf("--db (or global --tracedb) is required")
		return
	}
	events, terr := trace.QuerySqlite(dbPath, c.Int("limit"))
	if terr != nil {
		log.Errorf("trace query failed: %v", terr)
		return
	}
	for _, e := range events {
		fmt.Printf("tick=%d kind=%c thread=%d band=%s from=%d to=%d next=%d prev=%d executed=%d\n",
			e.Tick, e.Kind, e.ThreadID, e.Band, e.FromPriority, e.ToPriority, e.NextID, e.PrevID, e.TicksExecuted)
	}
}

func (k *kernelCli) cmdStatus(c *cli.Context) {
	free, total := 0, 0
	if k.ctx != nil {
		free, total = k.ctx.FS.FreeSectors(), k.ctx.FS.TotalSectors()
	}
	summary := hoststatus.BuildSummary(c.String("mount"), free, total)
	fmt.Printf("host: mem %d/%d free  disk %d/%d free\n",
		summary.Host.MemFree, summary.Host.MemTotal, summary.Host.DiskFree, summary.Host.DiskTotal)
	fmt.Printf("kernel: %d/%d sectors free\n", summary.FreeSectors, summary.TotalSectors)
}

func (k *kernelCli) cmdServe(c *cli.Context) {
	if k.collector == nil {
		k.collector = metrics.NewCollector()
	}
	addr := c.String("addr")
	log.Infof("serving metrics on %s", addr)
	if err := metrics.Serve(addr); err != nil {
		log.Errorf("serve failed: %v", err)
	}
}

// cmdRun builds a synthetic thread set spread across all three priority
// bands and drives it through a scheduler.Scheduler running to
// completion, one thread per burst, printing each dispatch. It uses its
// own throwaway in-memory disk -- the scheduler demo has nothing to do
// with whatever --disk names.
func (k *kernelCli) cmdRun(c *cli.Context) {
	d := disk.NewMemDisk(core.SectorSize, core.NumSectors)
	ctx := kernel.New(kernel.DefaultConfig, d, true, k.eventSink(c), nil)
	defer d.Close()

	numThreads := c.Int("threads")
	ticks := core.Tick(c.Int("ticks"))

	threads := make([]*scheduler.Thread, numThreads)
	for i := 0; i < numThreads; i++ {
		priority := core.Priority((140 - (i * 23)) % 150)
		if priority < core.MinPriority {
			priority += core.MaxPriority - core.MinPriority + 1
		}
		burst := (i % 5) + 1
		threads[i] = scheduler.NewThread(priority, burst, nil)
	}

	ctx.DisableInterrupts()
	for _, t := range threads {
		ctx.Scheduler.ReadyToRun(t, ctx.Tick())
	}
	ctx.EnableInterrupts()

	var prev *scheduler.Thread
	for ctx.Tick() < ticks {
		ctx.DisableInterrupts()
		next := ctx.Scheduler.FindNextToRun(ctx.Tick())
		if next == nil {
			ctx.EnableInterrupts()
			if prev == nil {
				break
			}
			ctx.Advance(1)
			continue
		}
		ctx.Scheduler.Run(next, prev != nil, ctx.Tick())
		ctx.EnableInterrupts()

		fmt.Printf("tick=%-6d dispatch thread=%-3d priority=%-3d burst=%d\n",
			ctx.Tick(), next.ID, next.Priority, next.BurstTime)

		ctx.Advance(core.Tick(next.BurstTime))
		prev = next
	}
}

func (k *kernelCli) cmdShell(c *cli.Context) {
	k.inShell = true
	defer func() { k.inShell = false }()

	cli.OsExiter = func(int) {}

	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	defer ln.Close()

	ln.SetCompleter(func(line string) (out []string) {
		for _, cmd := range k.app.Commands {
			if strings.HasPrefix(cmd.Name, line) {
				out = append(out, cmd.Name)
			}
		}
		return
	})

	for {
		input, err := ln.Prompt("(kernelctl) ")
		if err != nil {
			return
		}

		args, err := shlex.Split(input)
		if err != nil {
			log.Errorf("error: %v", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return
		}

		if k.runCommand(c, args...) == nil {
			ln.AppendHistory(input)
		}
	}
}
