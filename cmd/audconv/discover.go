// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/internal/discovery"
)

func runDiscover(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	service := fs.String("service", discovery.DefaultService, "mDNS service type")
	timeout := fs.Duration("timeout", 3*time.Second, "how long to listen for answers")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	found, err := discovery.Browse(ctx, *service, *timeout)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no services found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tINFO")
	for _, in := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\n", in.Name, in.Addr(), strings.Join(in.TXT, " "))
	}
	return w.Flush()
}

func runFormats(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORMAT\tMIME\tLOSSY\tBACKEND")
	for _, f := range formats.All() {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", f, f.MIMEType(), f.Lossy(), formats.SelectBackend(f))
	}
	return w.Flush()
}

func formatIDs() []string {
	var ids []string
	for _, f := range formats.All() {
		ids = append(ids, f.String())
	}
	return ids
}

func formatList() string {
	return strings.Join(formatIDs(), ", ")
}
