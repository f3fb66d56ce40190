// Command apiforge scaffolds projects and entities built on the framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/apiforge/apiforge/internal/generator"
)

func main() {
	cmd := &cli.Command{
		Name:  "apiforge",
		Usage: "scaffold API projects and entities",
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "create a project skeleton",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "module",
						Usage: "Go module path for the new project",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "parent directory for the project",
						Value: ".",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return errors.New("usage: apiforge new <name>")
					}
					if err := generator.NewProject(cmd.String("dir"), name, cmd.String("module")); err != nil {
						return err
					}
					fmt.Fprintf(cmd.Writer, "created project %s\n", name)
					return nil
				},
			},
			{
				Name:      "entity",
				Usage:     "render model, DTO, service, and controller stubs",
				ArgsUsage: "<Name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "module",
						Usage: "Go module path of the enclosing project",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "project root to render into",
						Value: ".",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return errors.New("usage: apiforge entity <Name>")
					}
					if err := generator.NewEntity(cmd.String("dir"), name, cmd.String("module")); err != nil {
						return err
					}
					fmt.Fprintf(cmd.Writer, "created entity %s\n", name)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
