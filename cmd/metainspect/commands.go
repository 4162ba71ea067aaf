package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	metamodel "github.com/nlstn/go-odata-metamodel"
	"github.com/nlstn/go-odata-metamodel/internal/store"
)

type options struct {
	capabilities string
	dialect      string
	dsn          string
	name         string
	verbose      bool
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "metainspect",
		Short: "Inspect OData V4 metadata and annotations",
		Long: `metainspect converts CSDL JSON metadata documents into the linked metadata
graph and resolves metadata paths against it. Documents can be read from a file
or from a metadata document database filled with the import command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.capabilities, "capabilities", "", "YAML file with capabilities to switch off")
	flags.StringVar(&opts.dialect, "dialect", store.DialectSQLite, "database dialect (sqlite or postgres)")
	flags.StringVar(&opts.dsn, "db", "", "metadata document database DSN")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newConvertCommand(opts))
	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))

	return rootCmd
}

func newConvertCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [FILE]",
		Short: "Convert a metadata document and print a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := opts.convert(cmd, args)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), graph)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "read the latest version of NAME from the database")
	return cmd
}

func newResolveCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [FILE] PATH",
		Short: "Resolve a metadata path and print the target and the visited objects",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[len(args)-1]
			graph, err := opts.convert(cmd, args[:len(args)-1])
			if err != nil {
				return err
			}

			converter := metamodel.NewConverter(metamodel.Config{Logger: opts.logger(cmd)})
			res := converter.ResolvePathWithTrace(graph, path)
			out := cmd.OutOrStdout()
			if res.Target == nil {
				fmt.Fprintf(out, "unresolved: %s\n", path)
			} else {
				fmt.Fprintf(out, "target: %s\n", describe(res.Target))
			}
			for i, object := range res.VisitedObjects {
				fmt.Fprintf(out, "  %d. %s\n", i+1, describe(object))
			}
			if res.Target == nil {
				return fmt.Errorf("path %q could not be resolved", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "read the latest version of NAME from the database")
	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a metadata document as a new version in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.name == "" {
				return errors.New("--name is required")
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			record, created, err := s.Save(cmd.Context(), opts.name, content)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", record.Identity())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "unchanged %s\n", record.Identity())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "document name")
	return cmd
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *options) loadCapabilities() (metamodel.Capabilities, error) {
	if o.capabilities == "" {
		return nil, nil
	}
	return metamodel.LoadCapabilitiesFile(o.capabilities)
}

func (o *options) openStore(cmd *cobra.Command) (*store.Store, error) {
	if o.dsn == "" {
		return nil, errors.New("--db is required")
	}
	db, err := store.Open(o.dialect, o.dsn)
	if err != nil {
		return nil, err
	}
	return store.New(db, o.logger(cmd))
}

// source returns the document named by args, or the latest stored version of
// --name when no file is given.
func (o *options) source(cmd *cobra.Command, args []string) (metamodel.Source, error) {
	if len(args) == 1 {
		doc, err := metamodel.ReadDocumentFile(args[0])
		if err != nil {
			return nil, err
		}
		return metamodel.NewDocumentSourceWithIdentity(args[0], doc), nil
	}
	if o.name == "" {
		return nil, errors.New("either FILE or --name is required")
	}
	s, err := o.openStore(cmd)
	if err != nil {
		return nil, err
	}
	record, err := s.Latest(cmd.Context(), o.name)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (o *options) convert(cmd *cobra.Command, args []string) (*metamodel.ConvertedMetadata, error) {
	caps, err := o.loadCapabilities()
	if err != nil {
		return nil, err
	}
	src, err := o.source(cmd, args)
	if err != nil {
		return nil, err
	}
	converter := metamodel.NewConverter(metamodel.Config{Capabilities: caps, Logger: o.logger(cmd)})
	return converter.Convert(cmd.Context(), src, nil)
}

func printSummary(out io.Writer, graph *metamodel.ConvertedMetadata) {
	fmt.Fprintf(out, "namespace: %s\n", graph.Namespace)
	fmt.Fprintf(out, "version: %s\n", graph.Version)
	if graph.EntityContainer != nil {
		fmt.Fprintf(out, "container: %s\n", graph.EntityContainer.FullyQualifiedName)
	}
	fmt.Fprintf(out, "entity types: %d\n", len(graph.EntityTypes))
	fmt.Fprintf(out, "complex types: %d\n", len(graph.ComplexTypes))
	fmt.Fprintf(out, "actions: %d\n", len(graph.Actions))
	fmt.Fprintf(out, "annotation lists: %d\n", len(graph.AnnotationLists))
	for _, set := range graph.EntitySets {
		fmt.Fprintf(out, "entity set %s: %s\n", set.Name, set.EntityTypeName)
	}
	for _, singleton := range graph.Singletons {
		fmt.Fprintf(out, "singleton %s: %s\n", singleton.Name, singleton.EntityTypeName)
	}
}

func describe(object any) string {
	switch v := object.(type) {
	case metamodel.Node:
		return fmt.Sprintf("%s %s", v.Kind(), v.Identity())
	case *metamodel.Annotation:
		return "Annotation @" + v.Key()
	case metamodel.Expression:
		return "Expression " + string(v.Type)
	}
	return fmt.Sprintf("%T", object)
}
