package domain

import "context"

// MetadataClient is the tool's describe-only query mode: formats for a
// single URL, member listing for a playlist. Parsing the tool's JSON is
// infrastructure; these result shapes are the contract.
type MetadataClient interface {
	// VideoInfo fetches the available formats and subtitle inventory
	VideoInfo(ctx context.Context, url string) (*VideoInfo, error)

	// Playlist enumerates a playlist's members in order, all selected
	Playlist(ctx context.Context, url string) (*PlaylistPlan, error)
}

// Runner owns the lifecycle of one external-tool invocation. Run blocks
// until the process exits: nil for exit 0, ErrCancelled after a Cancel,
// *SpawnError when the process never started, *RuntimeFailure otherwise.
type Runner interface {
	Run(ctx context.Context) error

	// Cancel terminates the process, graceful signal first, forced kill
	// after the grace period. No-op once the process has exited.
	Cancel()
}

// RunnerFactory builds one Runner per job execution. onEvent receives each
// parsed progress event and onLine each raw output line, in read order.
type RunnerFactory func(spec JobSpec, onEvent func(ProgressEvent), onLine func(string)) Runner
