// Command catalogctl administers a product catalog from the command line:
// importing feeds, listing and editing products, and inspecting the
// category and manufacturer index.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

const usage = `usage: catalogctl [-config FILE] COMMAND [ARGS]

Commands:
  import FILE...                 import .csv or .xml product feeds
  import-csv FILE|-              import a ';'-separated feed
  import-xml FILE|-              import a <product> element stream
  list [flags]                   list active products
  get -id ID | -link LINK [-category LINK]
                                 show one product
  remove ID                      soft-delete a product
  replace-category OLD NEW       move products filed exactly under OLD
  clear                          delete every product
  refresh                        rebuild the navigation index
  categories                     print the category tree
  manufacturers                  print the manufacturer list
  serve                          keep the index fresh until interrupted
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}
