package chartscout

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chartscout/chartscout/internal/audit"
	"github.com/chartscout/chartscout/internal/config"
	"github.com/chartscout/chartscout/internal/files"
)

func newConfigCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}

	var output string
	var force, gitignore bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented .chartscout.yml starter file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteStarter(output, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", output)
			if !gitignore {
				return nil
			}
			added, err := files.EnsureIgnored(filepath.Dir(output), files.LocalArtifacts(audit.DefaultFile)...)
			if err != nil {
				return fmt.Errorf("update .gitignore: %w", err)
			}
			for _, p := range added {
				fmt.Fprintln(cmd.OutOrStdout(), "Ignored", p)
			}
			return nil
		},
	}
	initCmd.Flags().StringVar(&output, "output", ".chartscout.yml", "output file path")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&gitignore, "gitignore", false, "also add the audit log and report files to .gitignore")

	var configFile string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged file configuration (local over global)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lcfg, gcfg, err := loadFileConfigs(configFile)
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(mergeFileConfigs(lcfg, gcfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	showCmd.Flags().StringVar(&configFile, "config", "", "config file (default .chartscout.yml, then the global config)")

	cfgCmd.AddCommand(initCmd, showCmd)
	return cfgCmd
}

// mergeFileConfigs overlays local on global field by field.
func mergeFileConfigs(local, global config.FileConfig) config.FileConfig {
	m := global
	set := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	set(&m.Org, local.Org)
	set(&m.APIURL, local.APIURL)
	set(&m.Include, local.Include)
	set(&m.Exclude, local.Exclude)
	set(&m.IncludeRepos, local.IncludeRepos)
	set(&m.ExcludeRepos, local.ExcludeRepos)
	set(&m.Ref, local.Ref)
	set(&m.Preset, local.Preset)
	set(&m.Enable, local.Enable)
	set(&m.Disable, local.Disable)
	set(&m.Subject, local.Subject)
	set(&m.RequestTimeout, local.RequestTimeout)
	if len(local.Extensions) > 0 {
		m.Extensions = local.Extensions
	}
	if local.MaxBytes != nil {
		m.MaxBytes = local.MaxBytes
	}
	for _, p := range []struct{ dst, src **int }{
		{&m.Threads, &local.Threads},
		{&m.FileWorkers, &local.FileWorkers},
		{&m.PerPage, &local.PerPage},
		{&m.RateBurst, &local.RateBurst},
		{&m.MaxRetries, &local.MaxRetries},
	} {
		if *p.src != nil {
			*p.dst = *p.src
		}
	}
	for _, p := range []struct{ dst, src **bool }{
		{&m.SkipArchived, &local.SkipArchived},
		{&m.SkipForks, &local.SkipForks},
		{&m.DefaultExcludes, &local.DefaultExcludes},
		{&m.RawFallback, &local.RawFallback},
		{&m.NoColor, &local.NoColor},
	} {
		if *p.src != nil {
			*p.dst = *p.src
		}
	}
	if local.RateLimit != nil {
		m.RateLimit = local.RateLimit
	}
	m.Pattern = append(append([]config.PatternConfig(nil), global.Pattern...), local.Pattern...)
	return m
}
