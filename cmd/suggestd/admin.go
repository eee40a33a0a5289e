package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AltairaLabs/codegen-suggest/internal/admin"
	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

const adminCallTimeout = 5 * time.Second

var adminAddr string

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Inspect or clear the queue of a running suggestd",
	}
	cmd.PersistentFlags().StringVar(&adminAddr, "addr", "localhost"+config.DefaultAdminGRPCAddr, "Admin gRPC address")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminClient(cmd, func(ctx context.Context, c *admin.Client) error {
				stats, err := c.Stats(ctx)
				if err != nil {
					return err
				}
				return printMessage(cmd, stats)
			})
		},
	})

	var confirm bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard every waiting request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminClient(cmd, func(ctx context.Context, c *admin.Client) error {
				cleared, err := c.Clear(ctx, confirm)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d request(s)\n", cleared)
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm clearing the queue")
	cmd.AddCommand(clearCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show the suggestion service configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminClient(cmd, func(ctx context.Context, c *admin.Client) error {
				cfg, err := c.Config(ctx)
				if err != nil {
					return err
				}
				return printMessage(cmd, cfg)
			})
		},
	})

	return cmd
}

func withAdminClient(cmd *cobra.Command, fn func(context.Context, *admin.Client) error) error {
	conn, err := grpc.NewClient(adminAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", adminAddr, err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), adminCallTimeout)
	defer cancel()

	return fn(ctx, admin.NewClient(conn))
}

func printMessage(cmd *cobra.Command, m *structpb.Struct) error {
	data, err := json.MarshalIndent(m.AsMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
