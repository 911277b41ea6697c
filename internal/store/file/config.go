package file

import (
	"context"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

const storeType = "file"

// FromConfig builds a bolt-format store from its options block.
//
//	filename     required, path of the database file
//	reload_time  required, cooldown in whole minutes, or null to never reload
//	format       optional, "bolt" (default) or "sqlite"
//	on_fault     optional, "unsafe" (default) or "unknown"
//	name         optional, label for logs and metrics
func FromConfig(ctx context.Context, opts reputation.Options, log logger.Logger) (reputation.Store, error) {
	return FromConfigFormat(FormatBolt)(ctx, opts, log)
}

// FromConfigFormat returns a constructor whose default format is defaultFormat.
func FromConfigFormat(defaultFormat string) reputation.Constructor {
	return func(ctx context.Context, opts reputation.Options, log logger.Logger) (reputation.Store, error) {
		o, err := parseOptions(opts, defaultFormat)
		if err != nil {
			return nil, err
		}
		o.Logger = log
		return New(ctx, o)
	}
}

func parseOptions(opts reputation.Options, defaultFormat string) (Options, error) {
	if missing := opts.Missing("filename", "reload_time"); len(missing) > 0 {
		return Options{}, reputation.MissingOptions(storeType, missing...)
	}

	path, err := opts.String("filename")
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "filename", err.Error())
	}
	cooldown, err := opts.NullableMinutes("reload_time")
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "reload_time", err.Error())
	}

	formatName, err := opts.OptionalString("format", defaultFormat)
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "format", err.Error())
	}
	format, err := FormatByName(formatName)
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "format", err.Error())
	}

	policyName, err := opts.OptionalString("on_fault", "")
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "on_fault", err.Error())
	}
	policy, err := reputation.ParseFaultPolicy(policyName)
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "on_fault", err.Error())
	}

	name, err := opts.OptionalString("name", "")
	if err != nil {
		return Options{}, reputation.InvalidOption(storeType, "name", err.Error())
	}

	return Options{
		Name:     name,
		Path:     path,
		Cooldown: cooldown,
		Format:   format,
		OnFault:  policy,
	}, nil
}
