package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"elementalVault/internal/model"
)

// Values above this are treated as unix milliseconds.
const millisecondThreshold = 1_000_000_000_000

// Flag names read by ParseParams.
const (
	FlagMint              = "mint"
	FlagAuthority         = "authority"
	FlagYieldBps          = "yield-bps"
	FlagCapacity          = "capacity"
	FlagMinAmount         = "min-amount"
	FlagStart             = "start"
	FlagEnd               = "end"
	FlagWithdrawTimeframe = "withdraw-timeframe"
)

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseTimestamp parses a timestamp value (unix seconds, unix milliseconds or
// RFC3339) into unix seconds.
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		if val > millisecondThreshold {
			val /= 1000
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	if tm.Unix() < 0 {
		return 0, fmt.Errorf("timestamp before epoch: %s", input)
	}
	return uint64(tm.Unix()), nil
}

// ParseSeconds parses a span given as whole seconds or a Go duration such as "168h".
func ParseSeconds(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}
	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration: %s", input)
	}
	return uint64(d / time.Second), nil
}

// ParseParams builds vault params from the flags that were explicitly set.
// Unset flags stay nil so updates leave those fields untouched.
func ParseParams(flags *pflag.FlagSet) (model.VaultParams, error) {
	var p model.VaultParams
	if flags == nil {
		return p, nil
	}

	value := func(name string) (string, bool) {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}

	if raw, ok := value(FlagMint); ok {
		addr, err := ParseAddress(raw)
		if err != nil {
			return p, fmt.Errorf("%s: %w", FlagMint, err)
		}
		p.BaseMint = &addr
	}
	if raw, ok := value(FlagAuthority); ok {
		addr, err := ParseAddress(raw)
		if err != nil {
			return p, fmt.Errorf("%s: %w", FlagAuthority, err)
		}
		p.Authority = &addr
	}
	if raw, ok := value(FlagYieldBps); ok {
		bps, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 16)
		if err != nil {
			return p, fmt.Errorf("%s: %w", FlagYieldBps, err)
		}
		v := uint16(bps)
		p.YieldBps = &v
	}

	uints := []struct {
		name  string
		dst   **uint64
		parse func(string) (uint64, error)
	}{
		{FlagCapacity, &p.VaultCapacity, parseUint},
		{FlagMinAmount, &p.MinAmount, parseUint},
		{FlagStart, &p.StartDate, ParseTimestamp},
		{FlagEnd, &p.EndDate, ParseTimestamp},
		{FlagWithdrawTimeframe, &p.WithdrawTimeframe, ParseSeconds},
	}
	for _, u := range uints {
		raw, ok := value(u.name)
		if !ok {
			continue
		}
		v, err := u.parse(raw)
		if err != nil {
			return p, fmt.Errorf("%s: %w", u.name, err)
		}
		*u.dst = &v
	}

	return p, nil
}

// ParseAmount parses a token amount in base units.
func ParseAmount(input string) (uint64, error) {
	return parseUint(input)
}

func parseUint(input string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(input), 10, 64)
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
