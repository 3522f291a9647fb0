package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/topobyte/png4j/chunks"
	"github.com/topobyte/png4j/pngStream"
)

type CommandOptions struct {
	Input   string
	BufSize int
	RowSize int
	Rows    int
	Poll    bool
	NoCRC   bool
	Verbose bool
}

var ShowHelper bool
var Options CommandOptions

func init() {
	flag.BoolVar(&ShowHelper, "h", false, "show this help")

	flag.StringVar(&Options.Input, "i", "", "set source png `input` file")
	flag.IntVar(&Options.BufSize, "b", pngStream.DefaultBufferSize, "feed buffer `size` in bytes")
	flag.IntVar(&Options.RowSize, "r", 0, "row `size` in bytes, 0 uses the image header")
	flag.IntVar(&Options.Rows, "n", 10, "maximum number of `rows` to print")
	flag.BoolVar(&Options.Poll, "p", false, "poll rows instead of using a callback")
	flag.BoolVar(&Options.NoCRC, "nocrc", false, "do not verify chunk checksums")
	flag.BoolVar(&Options.Verbose, "v", false, "log skipped chunks and discarded bytes")

	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, `png row dump version: v0.1.0
Usage: pngrows [-h] [-p] [-nocrc] [-v] [-b size] [-r size] [-n rows] -i filename

Options:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if ShowHelper {
		flag.Usage()
		os.Exit(0)
	}
	if Options.Input == "" {
		flag.Usage()
		os.Exit(0)
	}
	f, err := os.Open(Options.Input)
	if err != nil {
		log.Fatal(err)
	}
	if Options.Poll {
		err = dumpPolled(f, os.Stdout, Options)
	} else {
		err = dumpCallback(f, os.Stdout, Options)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func readerOptions(opts CommandOptions) pngStream.Options {
	ro := pngStream.Options{
		SkipCRC: opts.NoCRC,
		RowLen:  opts.RowSize,
	}
	if opts.Verbose {
		ro.Logger = log.New(os.Stderr, "pngrows: ", 0)
	}
	return ro
}

// dumpCallback prints rows from the row callback, stopping the data group
// after opts.Rows rows.
func dumpCallback(src io.ReadCloser, out io.Writer, opts CommandOptions) error {
	ro := readerOptions(opts)
	ro.OnRow = func(row pngStream.RowView) int {
		fmt.Fprintln(out, pngStream.FormatRow(row.InflatedRow(), row.Rown()))
		if row.Rown()+1 >= opts.Rows {
			return -1
		}
		return len(row.InflatedRow())
	}
	r := pngStream.NewReader(ro)
	feeder := pngStream.NewFeeder(src, opts.BufSize)
	err := feeder.FeedAll(r)
	if endErr := feeder.End(); err == nil {
		err = endErr
	}
	if err != nil {
		return err
	}
	printSummary(out, r)
	return nil
}

// dumpPolled prints rows pulled one at a time.
func dumpPolled(src io.ReadCloser, out io.Writer, opts CommandOptions) error {
	rr := pngStream.NewRowReader(src, opts.BufSize, readerOptions(opts))
	for n := 0; n < opts.Rows; n++ {
		row, rown, err := rr.NextRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			rr.Close()
			return err
		}
		fmt.Fprintln(out, pngStream.FormatRow(row, rown))
		if err := rr.Advance(len(row)); err != nil {
			rr.Close()
			return err
		}
	}
	if err := rr.Finish(); err != nil {
		return err
	}
	printSummary(out, rr.Reader())
	return nil
}

func printSummary(out io.Writer, r *pngStream.Reader) {
	if info := r.ImageInfo(); info != nil {
		fmt.Fprintln(out, info)
	}
	fmt.Fprintf(out, "bytes: %d, chunks: %d, %s bytes: %d\n", r.BytesCount(), r.ChunkCount(), chunks.IDAT, r.DataBytes())
	fmt.Fprint(out, r.Chunks().Summary())
}
