package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"inkpress/builder/config"
	"inkpress/builder/run"
	"inkpress/internal/scaffold"
)

// overrides collects repeated -set flags.
type overrides []string

func (o *overrides) String() string     { return strings.Join(*o, ",") }
func (o *overrides) Set(v string) error { *o = append(*o, v); return nil }

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		if err := build(args); err != nil {
			fail(err)
		}
	case "clean":
		if err := clean(args); err != nil {
			fail(err)
		}
	case "new":
		site, rest := siteFlag(args)
		scaffold.Run(site, rest)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// loadConfig parses the shared flags and loads site.yaml from the site root.
func loadConfig(name string, args []string) (*config.Config, afero.Fs, error) {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	site := flags.String("site", ".", "Site root directory")
	var sets overrides
	flags.Var(&sets, "set", "Override a site value (key.path=value, repeatable)")
	_ = flags.Parse(args)

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, *site)
	if err != nil {
		return nil, nil, err
	}
	for _, s := range sets {
		if err := cfg.Set(s); err != nil {
			return nil, nil, err
		}
	}
	return cfg, fs, nil
}

func build(args []string) error {
	cfg, fs, err := loadConfig("build", args)
	if err != nil {
		return err
	}

	b, err := run.NewBuilder(fs, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	return b.Build()
}

func clean(args []string) error {
	cfg, fs, err := loadConfig("clean", args)
	if err != nil {
		return err
	}
	return run.Clean(fs, cfg)
}

// siteFlag extracts just the -site flag for commands that take positional
// arguments.
func siteFlag(args []string) (string, []string) {
	flags := flag.NewFlagSet("new", flag.ExitOnError)
	site := flags.String("site", ".", "Site root directory")
	_ = flags.Parse(args)
	return *site, flags.Args()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: inkpress <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  build          Build the site incrementally")
	fmt.Println("  clean          Remove the build directory")
	fmt.Println("  new <title>    Create a new post with frontmatter")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nFlags for build and clean:")
	fmt.Println("  -site <dir>    Site root (default \".\")")
	fmt.Println("  -set k=v       Override a site config value (repeatable)")
}
