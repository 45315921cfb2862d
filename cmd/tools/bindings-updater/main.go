// cmd/tools/bindings-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"agri-advisor/pkg/registry"
)

var registryPath string

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	addSlugCmd := flag.NewFlagSet("add-slug", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{listCmd, addSlugCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "configs/category-bindings.json", "Path to bindings file")
	}

	categoryAdd := addSlugCmd.String("category", "", "Category (e.g., soil)")
	slug := addSlugCmd.String("slug", "", "Tool server slug to append as a fallback candidate")

	categoryUpdate := updateCmd.String("category", "", "Category to update")
	field := updateCmd.String("field", "", "Field to update (dataSource, timeoutClass, requiresCoordinates, coordinateHeaders, default.<argument>)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		err = listBindings()

	case "add-slug":
		addSlugCmd.Parse(os.Args[2:])
		if *categoryAdd == "" || *slug == "" {
			fmt.Println("Error: category and slug are required for add-slug.")
			addSlugCmd.Usage()
			os.Exit(1)
		}
		err = addSlug(*categoryAdd, *slug)
		if err == nil {
			fmt.Printf("Added slug %s to %s\n", *slug, *categoryAdd)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *categoryUpdate == "" || *field == "" {
			fmt.Println("Error: category and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateBinding(*categoryUpdate, *field, *value)
		if err == nil {
			fmt.Printf("Updated %s, field %s to %q\n", *categoryUpdate, *field, *value)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		var reg *registry.BindingRegistry
		reg, err = registry.LoadRegistry(registryPath)
		if err == nil {
			fmt.Printf("Bindings validation passed. Found %d categories.\n", len(reg.Bindings))
		}

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func listBindings() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}
	for _, b := range reg.Bindings {
		tools := make([]string, len(b.Calls))
		for i, c := range b.Calls {
			tools[i] = c.Tool
		}
		fmt.Printf("%-11s %-28s slugs=%s tools=%s coords=%t\n",
			b.Category, b.DataSource, strings.Join(b.Slugs, ","), strings.Join(tools, ","), b.RequiresCoordinates)
	}
	return nil
}

func addSlug(category, slug string) error {
	return modify(category, func(b *registry.Binding) error {
		for _, s := range b.Slugs {
			if s == slug {
				return fmt.Errorf("slug %s already bound to %s", slug, category)
			}
		}
		b.Slugs = append(b.Slugs, slug)
		return nil
	})
}

func updateBinding(category, field, value string) error {
	return modify(category, func(b *registry.Binding) error {
		switch {
		case field == "dataSource":
			b.DataSource = value
		case field == "timeoutClass":
			b.TimeoutClass = value
		case field == "requiresCoordinates", field == "coordinateHeaders":
			v, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", field, err)
			}
			if field == "requiresCoordinates" {
				b.RequiresCoordinates = v
			} else {
				b.CoordinateHeaders = v
			}
		case strings.HasPrefix(field, "default."):
			if b.Defaults == nil {
				b.Defaults = map[string]string{}
			}
			arg := strings.TrimPrefix(field, "default.")
			if value == "" {
				delete(b.Defaults, arg)
			} else {
				b.Defaults[arg] = value
			}
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	})
}

// modify loads the file, applies fn to one binding and saves the result.
// SaveRegistry validates before writing.
func modify(category string, fn func(*registry.Binding) error) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load bindings: %w", err)
	}
	for i := range reg.Bindings {
		if reg.Bindings[i].Category != category {
			continue
		}
		if err := fn(&reg.Bindings[i]); err != nil {
			return err
		}
		reg.LastUpdated = time.Now().Format(time.RFC3339)
		return registry.SaveRegistry(reg, registryPath)
	}
	return fmt.Errorf("category %s not found", category)
}

func help() {
	fmt.Println(`
Usage: bindings-updater <command> [flags]

Commands:
  list      Print every category binding
  add-slug  Append a fallback tool server to a category
  update    Update one field of a category binding
  validate  Validate the bindings file
  help      Show this help message

Examples:
  bindings-updater add-slug -category soil -slug soilgrids
  bindings-updater update -category fertilizer -field default.crop -value sorghum
  bindings-updater validate -path configs/category-bindings.json`)
}
