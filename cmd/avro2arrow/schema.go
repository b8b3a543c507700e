package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/columnar"
	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/rowsource"
)

// schemaCommand prints the Arrow schema of each Avro file.
type schemaCommand struct {
	files  *[]string
	output string
}

func addSchemaCommand(app *kingpin.Application) {
	cmd := &schemaCommand{}
	c := app.Command("schema", "Print the Arrow schema an Avro file converts to.").Action(cmd.run)
	c.Flag("output", "Output format. One of: [text, json]").Short('o').Default("text").EnumVar(&cmd.output, "text", "json")
	cmd.files = c.Arg("file", "The files to inspect.").Required().ExistingFiles()
}

func (cmd *schemaCommand) run(_ *kingpin.ParseContext) error {
	fs := afero.NewOsFs()
	for _, name := range *cmd.files {
		if err := cmd.printSchema(os.Stdout, fs, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (cmd *schemaCommand) printSchema(w io.Writer, fs afero.Fs, name string) error {
	src, err := rowsource.OpenFile(fs, name)
	if err != nil {
		return err
	}
	defer src.Close()

	schema, err := columnar.Translate(src.Schema())
	if err != nil {
		return err
	}

	if cmd.output == "json" {
		return writeSchemaJSON(w, name, schema)
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s:\n", name)
	for _, f := range schema.Fields() {
		printField(w, f, 1)
	}
	return nil
}

func printField(w io.Writer, f arrow.Field, depth int) {
	nullable := ""
	if f.Nullable {
		nullable = " (nullable)"
	}
	fmt.Fprintf(w, "%s%s: %s%s\n", strings.Repeat("\t", depth), f.Name, f.Type, nullable)

	if nested, ok := f.Type.(arrow.NestedType); ok {
		if _, isList := f.Type.(*arrow.ListType); isList {
			return
		}
		for _, child := range nested.Fields() {
			printField(w, child, depth+1)
		}
	}
}

type schemaJSON struct {
	File   string      `json:"file"`
	Fields []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Nullable bool              `json:"nullable"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Children []fieldJSON       `json:"children,omitempty"`
}

func writeSchemaJSON(w io.Writer, name string, schema *arrow.Schema) error {
	out := schemaJSON{File: name, Fields: make([]fieldJSON, 0, schema.NumFields())}
	for _, f := range schema.Fields() {
		out.Fields = append(out.Fields, toFieldJSON(f))
	}

	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toFieldJSON(f arrow.Field) fieldJSON {
	out := fieldJSON{Name: f.Name, Type: f.Type.String(), Nullable: f.Nullable}
	if f.Metadata.Len() > 0 {
		out.Metadata = make(map[string]string, f.Metadata.Len())
		for i, k := range f.Metadata.Keys() {
			out.Metadata[k] = f.Metadata.Values()[i]
		}
	}
	if nested, ok := f.Type.(arrow.NestedType); ok {
		for _, child := range nested.Fields() {
			out.Children = append(out.Children, toFieldJSON(child))
		}
	}
	return out
}
