// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/kvmesh-go/internal/infra/buildinfo.Version=v1.0.0 \
//	    -X github.com/yndnr/kvmesh-go/internal/infra/buildinfo.Commit=abc123"
package buildinfo
