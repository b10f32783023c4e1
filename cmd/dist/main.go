package main

import (
	"flag"
	"fmt"
	"hash"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dchest/siphash"
	"github.com/gobwas/avl"
	"github.com/gobwas/maglev"
)

func main() {
	var (
		p        int    // Number of goroutines.
		n        int    // Number of objects.
		s        int    // Number of servers in the table.
		lo       int    // Min capacity factor.
		hi       int    // Max capacity factor.
		fs       string // Comma-separated factors list.
		csv      bool
		hashFunc string // Optional hash function name.

		verbose bool
		silent  bool
	)
	flag.IntVar(&p,
		"parallelism", runtime.NumCPU(),
		"number of concurrent processors",
	)
	flag.IntVar(&n,
		"objects", 1e6,
		"number of objects to spread across servers",
	)
	flag.IntVar(&s,
		"servers", 10,
		"number of servers to build table over",
	)
	flag.IntVar(&lo,
		"lo", 0,
		"capacity factor to start from",
	)
	flag.IntVar(&hi,
		"hi", 0,
		"capacity factor to end at",
	)
	flag.StringVar(&fs,
		"factors", "100",
		"comma-separated list of capacity factors (table size is the next prime >= factor*servers)",
	)
	flag.StringVar(&hashFunc,
		"hash", "",
		"custom hash function to be used",
	)
	flag.BoolVar(&verbose,
		"v", false,
		"be verbose",
	)
	flag.BoolVar(&silent,
		"s", false,
		"be silent",
	)
	flag.BoolVar(&csv,
		"csv", true,
		"print csv to standard output",
	)

	flag.Parse()

	logf := func(f string, args ...interface{}) {
		if !verbose {
			return
		}
		log.Printf(f, args...)
	}
	printf := func(f string, args ...interface{}) {
		if silent {
			return
		}
		fmt.Fprintf(os.Stderr, f, args...)
	}

	var newHash func() hash.Hash64
	switch hashFunc {
	case "":
	case "siphash":
		newHash = func() hash.Hash64 {
			return siphash.New(make([]byte, 16))
		}
	default:
		panic(fmt.Sprintf("unexpected hash function: %q", hashFunc))
	}

	// Prepare servers to build table(s) over.
	servers := make([]maglev.Item, s)
	seenSrv := make(map[string]bool)
	for i := 0; i < s; {
		var b [4]byte
		_, err := rand.Read(b[:])
		if err != nil {
			panic(err)
		}
		ip := net.IPv4(b[0], b[1], b[2], b[3])
		s := ip.String()
		if seenSrv[s] {
			logf("#%d server duplicated; repeat", i)
			continue
		}
		seenSrv[s] = true
		servers[i] = StringItem(s)
		i++
	}
	logf("%d servers are ready", len(servers))

	// Prepare objects to be spread across servers.
	objects := make([]maglev.Item, n)
	seenObj := make(map[string]bool)
	for i := 0; i < n; {
		s := fmt.Sprintf("%016x", rand.Intn(math.MaxInt64))
		if seenObj[s] {
			logf("#%d object duplicated; repeat", i)
			continue
		}
		seenObj[s] = true
		objects[i] = StringItem(s)
		i++
	}
	logf("%d objects are ready", len(objects))

	// Prepare list of capacity factors. We merge here factors range (from
	// `lo` to `hi`) with manually specified factors in `fs`.
	// We use tree to autofix duplicates (if any).
	var factors avl.Tree
	for _, s := range strings.Split(fs, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		f, err := strconv.Atoi(s)
		if err != nil {
			panic(err)
		}
		factors, _ = factors.Insert(factor(f))
	}
	for f := lo; f < hi; f++ {
		factors, _ = factors.Insert(factor(f))
	}
	logf("%d factors are ready", factors.Size())

	mean := float64(n) / float64(s)

	var (
		work    = make(chan int)
		stop    = make(chan struct{})
		done    = make(chan struct{}, p)
		results = make(chan result, 1)
	)
	for i := 0; i < p; i++ {
		go func() {
			defer func() {
				done <- struct{}{}
			}()
			assigned := make([]maglev.Item, len(objects))
			for {
				var f int
				select {
				case <-stop:
					return
				case f = <-work:
					// Process below.
				}

				start := time.Now()
				table := maglev.NewWithCapacityAndHash(servers, f*len(servers), newHash)
				latency := time.Since(start)

				distribution := make(map[string]int, len(servers))
				for i, obj := range objects {
					item := table.Get(obj)
					if item == nil {
						panic(fmt.Sprintf("empty item"))
					}
					assigned[i] = item
					distribution[string(item.(StringItem))]++
				}
				var variance float64
				for _, d := range distribution {
					variance += math.Pow(float64(d)-mean, 2)
				}
				// Divide by number of servers as for mean.
				variance /= float64(len(servers))

				// Rebuild without the first server at the preserved
				// capacity and count relocated objects.
				next := maglev.NewWithCapacityAndHash(servers[1:], table.Capacity(), newHash)
				var moved int
				for i, obj := range objects {
					if next.Get(obj) != assigned[i] {
						moved++
					}
				}

				results <- result{
					f:       f,
					m:       table.Capacity(),
					latency: latency,
					stddev:  math.Sqrt(variance),
					moved:   moved,
				}
			}
		}()
	}

	go func() {
		factors.InOrder(func(x avl.Item) bool {
			select {
			case <-stop:
				return false
			case work <- int(x.(factor)):
				return true
			}
		})
		close(stop)
		for i := 0; i < p; i++ {
			<-done
		}
		close(results)
	}()

	var t avl.Tree
	for r := range results {
		t, _ = t.Insert(r)
		printf(".")
		if n := t.Size(); n%80 == 0 {
			f := factors.Size()
			printf(
				"%d/%d(%.1f%%)\n",
				n, f,
				float64(n)/float64(f)*100, // Progress percentage.
			)
		}
	}
	printf("\n")

	tw := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	t.InOrder(func(x avl.Item) bool {
		r := x.(result)
		var (
			devPct   = r.stddev / float64(n) * 100
			movedPct = float64(r.moved) / float64(n) * 100
		)
		logf(
			"%04d: m=%d stddev=%.2f(%.2f%%) moved=%d(%.2f%%) latency=%s\n",
			r.f, r.m,
			r.stddev, devPct,
			r.moved, movedPct,
			r.latency,
		)
		if csv {
			fmt.Fprintf(tw,
				"%d,\t%d,\t%.4f,\t%.2f,\t%.2f\n",
				r.f, r.m, devPct, movedPct,
				r.latency.Seconds()*1000,
			)
		}
		return true
	})
	tw.Flush()

	printf("OK")
}

type result struct {
	f       int
	m       int
	latency time.Duration
	stddev  float64
	moved   int
}

func (r result) Compare(x avl.Item) int {
	return r.f - x.(result).f
}

type StringItem string

func (s StringItem) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, string(s))
	return int64(n), err
}

type factor int

func (f factor) Compare(x avl.Item) int {
	return int(f - x.(factor))
}
