// apigateway es el binario único del servicio: server HTTP, migraciones y
// administración de aplicaciones y usuarios.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	// .env es opcional; en producción todo viene por entorno real
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "apigateway",
		Short:         "OAuth2 token service with fingerprint-bound user sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(clientCmd())
	root.AddCommand(userCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
