//	@title			Stowage API
//	@version		1.0
//	@description	File storage service: uploads bytes to a configurable store and keeps searchable metadata.
//
//	@BasePath	/
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Shared API key.
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token issued by /auth/token. Format: **Bearer {token}**

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "api",
	Short:        "File storage service",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	tokenCmd.Flags().String("subject", "", "token subject, e.g. the client name")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default 720h)")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}
