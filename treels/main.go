package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/cfgplot/loader"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options] <root-input-files>...

Lists the branches of a tree and the Go type each one is read as, to help
write the Variables and selections of a cfgplot configuration.

options:
`,
	)
	pflag.PrintDefaults()
}

func main() {
	var (
		treeName = pflag.StringP("tree", "t", "nominal", "name of the tree to list")
		filter   = pflag.StringP("match", "m", "", "only list branches containing this text")
	)
	pflag.Usage = printUsage
	pflag.Parse()
	if pflag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	for _, filename := range pflag.Args() {
		tree, closeFile, err := loader.OpenTree(filename, *treeName)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("%s: %s (%d entries)\n", filename, *treeName, tree.Entries())
		for _, rv := range rtree.NewReadVars(tree) {
			if *filter != "" && !strings.Contains(rv.Name, *filter) {
				continue
			}
			fmt.Printf("  %-30s %T\n", rv.Name, rv.Value)
		}

		if err := closeFile(); err != nil {
			log.Fatal(err)
		}
	}
}
