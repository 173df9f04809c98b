package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/tidwall/redlog"

	"github.com/nequadtree/quadtree"
	"github.com/nequadtree/quadtree/geom"
	"github.com/nequadtree/quadtree/pointfile"
	"github.com/nequadtree/quadtree/pointfile/writer"
)

var version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, `usage: quadtree [flags] <command>

commands:
  demo    build the 9 point example and run two queries
  gen     write -n random points inside -bounds to -o
  query   print the points of -f inside -rect
  print   print the tree built from -f
  stats   print the shape of the tree built from -f

flags:
`)
	flag.PrintDefaults()
}

func main() {
	var loglevel string
	var file, out string
	var bounds, rect string
	var leaf, n int
	var seed int64
	var loadAll bool

	flag.StringVar(&loglevel, "loglevel", "notice", "Log level [quiet,warning,notice,verbose,debug]")
	flag.StringVar(&file, "f", "", "Point file to read")
	flag.StringVar(&out, "o", "points.qpt", "Point file to write")
	flag.StringVar(&bounds, "bounds", "", "Tree bounds, e.g. '[0 0],[1024 1024]'. Defaults to the file envelope")
	flag.StringVar(&rect, "rect", "", "Query rectangle, WKT or GeoJSON are accepted too")
	flag.IntVar(&leaf, "leaf", 4, "Maximum number of points per leaf")
	flag.IntVar(&n, "n", 1000, "Number of points to generate")
	flag.Int64Var(&seed, "seed", 1, "Random seed for gen")
	flag.BoolVar(&loadAll, "load", false, "Load the point file into memory instead of mmapping it")
	flag.Usage = usage
	flag.Parse()

	log := redlog.New(os.Stderr, nil)
	switch strings.ToLower(loglevel) {
	default:
		log.Warningf("invalid loglevel '%v'", loglevel)
		os.Exit(1)
	case "quiet":
		log = redlog.New(io.Discard, nil)
	case "warning":
		log = redlog.New(os.Stderr, &redlog.Options{Level: 3, App: 'M'})
	case "notice":
		log = redlog.New(os.Stderr, &redlog.Options{Level: 2, App: 'M'})
	case "verbose":
		log = redlog.New(os.Stderr, &redlog.Options{Level: 1, App: 'M'})
	case "debug":
		log = redlog.New(os.Stderr, &redlog.Options{Level: 0, App: 'M'})
	}

	log.Debugf("quadtree %s", version)

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "demo":
		err = demo(os.Stdout)
	case "gen":
		err = gen(log, out, bounds, n, seed)
	case "query", "print", "stats":
		var qt *quadtree.QuadTree
		qt, err = load(log, file, bounds, leaf, loadAll)
		if err != nil {
			break
		}
		switch cmd {
		case "query":
			err = query(os.Stdout, qt, rect)
		case "print":
			err = printTree(os.Stdout, qt)
		case "stats":
			err = printStats(os.Stdout, qt)
		}
	default:
		log.Warningf("unknown command '%v'", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Warningf("%v", err)
		os.Exit(1)
	}
}

func demo(w io.Writer) error {
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(16, 16))
	points := []geom.Point{
		{X: 2, Y: 10}, {X: 6, Y: 14}, {X: 4, Y: 4}, {X: 9, Y: 1}, {X: 11, Y: 3}, {X: 10, Y: 6}, {X: 14, Y: 6}, {X: 13, Y: 3}, {X: 15, Y: 1},
	}
	qt, err := quadtree.NewWithPoints(points, bounds, 2)
	if err != nil {
		return err
	}
	if err := printTree(w, qt); err != nil {
		return err
	}
	for _, r := range []geom.Rect{bounds, geom.NewRect(geom.Pt(9, 0), geom.Pt(16, 8))} {
		ps, err := qt.Query(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "query %v: %s\n", r, formatPoints(ps))
	}
	return nil
}

func gen(log *redlog.Logger, out, bounds string, n int, seed int64) error {
	if bounds == "" {
		bounds = "[0 0],[1024 1024]"
	}
	b, err := parseRect(bounds)
	if err != nil {
		return fmt.Errorf("invalid -bounds: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("invalid -n: %d", n)
	}

	r := rand.New(rand.NewSource(seed))
	points := make([]geom.Point, n)
	for i := range points {
		points[i] = geom.Pt(
			b.Low.X+r.Intn(b.Width()+1),
			b.Low.Y+r.Intn(b.Height()+1),
		)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	header := writer.NewHeader(flatbuffers.NewBuilder(0)).
		SetName(out).
		SetDescription(fmt.Sprintf("%d random points, seed %d", n, seed))
	wr := writer.NewWriter(header, true, &writer.SliceGenerator{Points: points}, nil)
	written, err := wr.Write(f)
	if err != nil {
		return fmt.Errorf("error writing %s: %w", out, err)
	}
	log.Noticef("wrote %d points (%d bytes) to %s", n, written, out)
	return f.Close()
}

func load(log *redlog.Logger, file, bounds string, leaf int, loadAll bool) (*quadtree.QuadTree, error) {
	if file == "" {
		return nil, fmt.Errorf("missing -f")
	}
	var pf *pointfile.PointFile
	var err error
	if loadAll {
		pf, err = pointfile.NewWithBehavior(file, pointfile.BehaviorLoadAll)
	} else {
		pf, err = pointfile.New(file)
	}
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	points, err := pf.Points()
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", file, err)
	}
	log.Verbf("read %d points from %s", len(points), file)

	var b geom.Rect
	switch envelope, ok := pf.Bounds(); {
	case bounds != "":
		if b, err = parseRect(bounds); err != nil {
			return nil, fmt.Errorf("invalid -bounds: %w", err)
		}
	case ok:
		b = envelope
	default:
		b, _ = geom.Extent(points)
	}

	qt, err := quadtree.NewWithPoints(points, b, leaf)
	if err != nil {
		return nil, err
	}
	if dropped := len(points) - qt.Len(); dropped > 0 {
		log.Noticef("%d points outside of %v were dropped", dropped, b)
	}
	log.Debugf("built tree over %v with leaf size %d", b, leaf)
	return qt, nil
}

func query(w io.Writer, qt *quadtree.QuadTree, rect string) error {
	if rect == "" {
		return fmt.Errorf("missing -rect")
	}
	r, err := parseRect(rect)
	if err != nil {
		return fmt.Errorf("invalid -rect: %w", err)
	}
	ps, err := qt.Query(r)
	if err != nil {
		return err
	}
	for _, p := range ps {
		fmt.Fprintln(w, p)
	}
	return nil
}

func printStats(w io.Writer, qt *quadtree.QuadTree) error {
	s, err := qt.Stats()
	if err != nil {
		return err
	}
	b, _ := qt.Bounds()
	fmt.Fprintf(w, "bounds:          %v\n", b)
	fmt.Fprintf(w, "max leaf size:   %d\n", qt.MaxLeafSize())
	fmt.Fprintf(w, "points:          %d\n", s.Points)
	fmt.Fprintf(w, "nodes:           %d\n", s.Nodes)
	fmt.Fprintf(w, "leaves:          %d (%d empty)\n", s.Leaves, s.EmptyLeaves)
	fmt.Fprintf(w, "max depth:       %d\n", s.MaxDepth)
	fmt.Fprintf(w, "max leaf points: %d\n", s.MaxLeafPoints)
	return nil
}
