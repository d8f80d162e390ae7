package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"elementalVault/internal/config"
	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/vault"
)

// withApp runs fn with an opened app and a signal-aware context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func runInit(cmd *cobra.Command, _ []string) error {
	caller, err := addressFlag(cmd, "caller")
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		g, err := a.engine.InitGlobal(ctx, caller)
		if err != nil {
			return err
		}
		return a.print(g)
	})
}

func runCreate(cmd *cobra.Command, _ []string) error {
	caller, err := addressFlag(cmd, "caller")
	if err != nil {
		return err
	}
	params, err := config.ParseParams(cmd.Flags())
	if err != nil {
		return err
	}
	id, explicit, err := optionalVaultFlag(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if !explicit {
			g, err := a.engine.Global(ctx)
			if err != nil {
				return err
			}
			id = g.VaultCounter
		}
		v, err := a.engine.InitOrUpdateVault(ctx, id, params, caller)
		if err != nil {
			return err
		}
		return a.print(vaultView(v, custody.VaultAddress(v.VaultCount)))
	})
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("vault")
	from, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		v, p, err := a.engine.DepositOrInit(ctx, id, from, amount)
		if err != nil {
			return err
		}
		return a.print(map[string]any{"vault": v, "position": p})
	})
}

func runAuthorityWithdraw(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("vault")
	caller, err := addressFlag(cmd, "caller")
	if err != nil {
		return err
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		v, err := a.engine.AuthorityWithdraw(ctx, id, amount, caller)
		if err != nil {
			return err
		}
		return a.print(v)
	})
}

func runTopup(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("vault")
	paying := cmd.Flags().Changed("from")

	var (
		from   common.Address
		amount uint64
		err    error
	)
	if paying {
		if from, err = addressFlag(cmd, "from"); err != nil {
			return err
		}
		if amount, err = amountFlag(cmd, "amount"); err != nil {
			return err
		}
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := map[string]any{"vault_count": id}
		if paying {
			balance, err := a.engine.Topup(ctx, id, from, amount)
			if err != nil {
				return err
			}
			out["paid"] = amount
			out["custody_balance"] = balance
		}
		topup, err := a.engine.ComputeTopupAmount(ctx, id)
		if err != nil {
			return err
		}
		out["topup"] = topup.String()
		return a.print(out)
	})
}

func runRedeem(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("vault")
	owner, err := addressFlag(cmd, "owner")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		v, payout, err := a.engine.UserWithdraw(ctx, id, owner)
		if err != nil {
			return err
		}
		return a.print(map[string]any{"vault": v, "payout": payout})
	})
}

func runSetAuthority(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("vault")
	caller, err := addressFlag(cmd, "caller")
	if err != nil {
		return err
	}
	next, err := addressFlag(cmd, "new-authority")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		v, err := a.engine.UpdateAuthority(ctx, id, caller, next)
		if err != nil {
			return err
		}
		return a.print(v)
	})
}

func runClose(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("vault")
	caller, err := addressFlag(cmd, "caller")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		swept, err := a.engine.CloseVault(ctx, id, caller)
		if err != nil {
			return err
		}
		return a.print(map[string]any{"vault_count": id, "swept": swept})
	})
}

func runShow(cmd *cobra.Command, _ []string) error {
	id, single, err := optionalVaultFlag(cmd)
	if err != nil {
		return err
	}
	ownerRaw, _ := cmd.Flags().GetString("owner")
	if ownerRaw != "" && !single {
		return fmt.Errorf("--owner needs --vault")
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if !single {
			vaults, err := a.engine.Vaults(ctx)
			if err != nil {
				return err
			}
			return a.print(vaults)
		}

		v, err := a.engine.Vault(ctx, id)
		if err != nil {
			return err
		}
		balance, err := a.engine.CustodyBalance(ctx, id)
		if err != nil {
			return err
		}
		topup, err := a.engine.ComputeTopupAmount(ctx, id)
		if err != nil {
			return err
		}
		out := map[string]any{
			"vault":           vaultView(v, custody.VaultAddress(id)),
			"custody_balance": balance,
			"topup":           topup.String(),
		}
		if ownerRaw != "" {
			owner, err := addressFlag(cmd, "owner")
			if err != nil {
				return err
			}
			p, err := a.engine.Position(ctx, id, owner)
			switch {
			case errors.Is(err, vault.ErrPositionNotFound):
				out["position"] = nil
			case err != nil:
				return err
			default:
				out["position"] = p
			}
		}
		return a.print(out)
	})
}

type vaultJSON struct {
	model.Vault
	CustodyAddress string `json:"custody_address"`
}

func vaultView(v model.Vault, custodyAddr common.Address) vaultJSON {
	return vaultJSON{Vault: v, CustodyAddress: custodyAddr.Hex()}
}
