package main

import (
	"context"

	"github.com/spf13/cobra"
)

func runFund(cmd *cobra.Command, _ []string) error {
	mint, err := addressFlag(cmd, "mint")
	if err != nil {
		return err
	}
	owner, err := addressFlag(cmd, "owner")
	if err != nil {
		return err
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		balance, err := a.engine.Fund(ctx, mint, owner, amount)
		if err != nil {
			return err
		}
		return a.print(map[string]any{"mint": mint, "owner": owner, "balance": balance})
	})
}

func runBalance(cmd *cobra.Command, _ []string) error {
	mint, err := addressFlag(cmd, "mint")
	if err != nil {
		return err
	}
	owner, err := addressFlag(cmd, "owner")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		balance, err := a.engine.Balance(ctx, mint, owner)
		if err != nil {
			return err
		}
		return a.print(map[string]any{"mint": mint, "owner": owner, "balance": balance})
	})
}
