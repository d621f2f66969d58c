package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farmhand/farmhand/internal/catalog"
	"github.com/farmhand/farmhand/internal/config"
	"github.com/farmhand/farmhand/internal/db"
	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/remote"
)

func newSeedCmd(g *globals) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Prepare the remote store and upload the bundled catalogs",
		Long:  "Creates the remote schema where the backend needs one, then uploads the crop presets, pest catalog and default profile. With --demo the sample fields and crop cycles are uploaded too.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, g, demo)
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "also upload the demo fields and crop cycles")
	return cmd
}

func runSeed(cmd *cobra.Command, g *globals, demo bool) error {
	out := cmd.OutOrStdout()
	ctx := context.Background()

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if cfg.Remote.Kind == config.RemoteNone {
		return errors.New("seed: remote.kind is none, nothing to seed")
	}

	if cfg.Remote.Kind == config.RemoteMySQL {
		o := mysqlOptions(cfg)
		adminDB, err := db.ConnectAdmin(o)
		if err != nil {
			return err
		}
		err = db.CreateDatabase(adminDB, o.Database)
		if sqlDB, dbErr := adminDB.DB(); dbErr == nil {
			sqlDB.Close()
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %q ready\n", o.Database)
	}

	rs, closeRemote, err := openRemote(ctx, cfg, g.log)
	if err != nil {
		return err
	}
	defer closeRemote()

	if p, ok := rs.(remote.Provisioner); ok {
		if err := p.Provision(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Provisioned %s schema\n", rs.Name())
	}

	presets, err := catalog.CropPresets()
	if err != nil {
		return err
	}
	pests, err := catalog.Pests()
	if err != nil {
		return err
	}
	profile, err := catalog.DefaultProfile(timeNow())
	if err != nil {
		return err
	}

	if err := upload(ctx, rs, remote.CropPresets, presets, func(p models.CropPreset) string { return p.ID }); err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploaded %d crop presets\n", len(presets))
	if err := upload(ctx, rs, remote.PestPresets, pests, func(p models.Pest) string { return p.ID }); err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploaded %d pests\n", len(pests))
	if err := upload(ctx, rs, remote.Users, []models.UserProfile{profile}, func(models.UserProfile) string { return remote.CurrentUser }); err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploaded profile for %s\n", profile.Name)

	if !demo {
		return nil
	}
	fields, err := catalog.DemoFields()
	if err != nil {
		return err
	}
	cycles, err := catalog.DemoCycles()
	if err != nil {
		return err
	}
	if err := upload(ctx, rs, remote.Fields, fields, func(f models.Field) string { return f.ID }); err != nil {
		return err
	}
	if err := upload(ctx, rs, remote.Cycles, cycles, func(c models.CropCycle) string { return c.ID }); err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploaded %d demo fields and %d crop cycles\n", len(fields), len(cycles))
	return nil
}

// upload writes each item as one document keyed by id(item).
func upload[T any](ctx context.Context, rs remote.DocumentStore, collection string, items []T, id func(T) string) error {
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("seed: encode %s: %w", collection, err)
		}
		if err := rs.Set(ctx, collection, id(item), data); err != nil {
			return fmt.Errorf("seed: upload %s/%s: %w", collection, id(item), err)
		}
	}
	return nil
}
