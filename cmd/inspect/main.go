package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wippyai/vmi-runtime/image"
	"github.com/wippyai/vmi-runtime/signature"
)

func main() {
	var (
		exportsFile = flag.String("exports", "", "Path to a dumped export metadata region")
		importsFile = flag.String("imports", "", "Path to a dumped import metadata region")
		noDebug     = flag.Bool("no-debug", false, "Records carry no parameter/return type names")
		sigSpec     = flag.String("sig", "", "Compute the identity of a call shape, e.g. 'foo(u32,char)->own-buf'")
		list        = flag.Bool("list", false, "List functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *sigSpec != "" {
		if err := printIdentity(*sigSpec); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *exportsFile == "" && *importsFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -exports <region> [-imports <region>] -list")
		fmt.Fprintln(os.Stderr, "       inspect -exports <region> [-imports <region>] -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       inspect -sig 'name(u32,char)->own-buf'")
		os.Exit(1)
	}

	img, err := loadRegions(*exportsFile, *importsFile, !*noDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive && !*list {
		if err := runInteractive(img, *exportsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printListing(img)
}

func loadRegions(exportsFile, importsFile string, debug bool) (*image.Image, error) {
	sections := make(map[string][]byte)

	if exportsFile != "" {
		raw, err := os.ReadFile(exportsFile)
		if err != nil {
			return nil, fmt.Errorf("read exports: %w", err)
		}
		sections[image.SectionExports] = raw
	}
	if importsFile != "" {
		raw, err := os.ReadFile(importsFile)
		if err != nil {
			return nil, fmt.Errorf("read imports: %w", err)
		}
		sections[image.SectionImports] = raw
	}

	return image.Parse(sections, 0, image.Options{Debug: debug})
}

func printListing(img *image.Image) {
	fmt.Printf("Exports: %d\n", len(img.Exports))
	for _, e := range img.Exports {
		fmt.Printf("  %#016x  entry %#08x  %s\n", uint64(e.Meta.Sig), e.Entry, formatMeta(e.Meta))
	}

	fmt.Printf("\nImports: %d\n", len(img.Imports))
	for _, m := range img.Imports {
		fmt.Printf("  %#016x  %s\n", uint64(m.Sig), formatMeta(m))
	}
}

func formatMeta(m image.FnMeta) string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(m.ParamTypes, ", "))
	b.WriteByte(')')
	if m.ReturnType != "" {
		b.WriteString(" -> ")
		b.WriteString(m.ReturnType)
	}
	return b.String()
}

// printIdentity computes and prints the identity of a call shape given as
// "name(type,type)->type". Types use the canonical kind names; the return
// clause may be omitted for functions returning nothing.
func printIdentity(spec string) error {
	name, params, ret, err := parseFuncSpec(spec)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n", spec, identityString(name, params, ret))
	return nil
}

func identityString(name string, params []signature.TypeID, ret signature.TypeID) string {
	return fmt.Sprintf("%#016x", uint64(signature.Func(name, params, ret)))
}

func parseFuncSpec(spec string) (name string, params []signature.TypeID, ret signature.TypeID, err error) {
	ret = signature.KindUnit.ID()

	open := strings.IndexByte(spec, '(')
	end := strings.IndexByte(spec, ')')
	if open <= 0 || end < open {
		return "", nil, 0, fmt.Errorf("malformed spec %q: want name(types)->type", spec)
	}
	name = spec[:open]

	if rest := strings.TrimSpace(spec[end+1:]); rest != "" {
		retName, ok := strings.CutPrefix(rest, "->")
		if !ok {
			return "", nil, 0, fmt.Errorf("malformed return clause %q", rest)
		}
		ret, err = kindIDByName(strings.TrimSpace(retName))
		if err != nil {
			return "", nil, 0, err
		}
	}

	inner := strings.TrimSpace(spec[open+1 : end])
	if inner == "" {
		return name, nil, ret, nil
	}
	for _, p := range strings.Split(inner, ",") {
		id, err := kindIDByName(strings.TrimSpace(p))
		if err != nil {
			return "", nil, 0, err
		}
		params = append(params, id)
	}
	return name, params, ret, nil
}

func kindIDByName(name string) (signature.TypeID, error) {
	for k := signature.KindBool; k <= signature.KindBorrowBuf; k++ {
		if k.String() == name {
			return k.ID(), nil
		}
	}
	return 0, fmt.Errorf("unknown type name %q", name)
}
