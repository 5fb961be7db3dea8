// Package pactverify verifies a provider against the pacts written by its
// consumers from a Go test.
//
//	registry := pactverify.NewRegistry()
//	registry.RegisterState("account 42 exists", createAccount)
//
//	verifier := pactverify.NewVerifier(pactverify.FromFolder("../pacts"), "accounts-api",
//		pactverify.WithTarget(pactverify.NewTarget("http", "localhost", port, "/")),
//		pactverify.WithRegistry(registry))
//	pactverify.VerifyRequestResponse(t, verifier, "")
package pactverify

import (
	"context"

	"github.com/form3tech-oss/pact-provider/internal/app/provider"
	"github.com/form3tech-oss/pact-provider/internal/app/sources"
)

type (
	Verifier       = provider.Verifier
	VerifierOption = provider.VerifierOption
	Registry       = provider.Registry
	Target         = provider.Target
	Source         = provider.Source
	Summary        = provider.Summary
)

var (
	NewVerifier         = provider.NewVerifier
	NewRegistry         = provider.NewRegistry
	NewTarget           = provider.NewTarget
	TargetFromURL       = provider.TargetFromURL
	WithTarget          = provider.WithTarget
	WithRegistry        = provider.WithRegistry
	WithStateHandler    = provider.WithStateHandler
	WithMessageProducer = provider.WithMessageProducer
	WithLogger          = provider.WithLogger
	WithTracerProvider  = provider.WithTracerProvider
	WithRunID           = provider.WithRunID
)

// FromFolder reads the pacts stored as *.json files in a folder.
func FromFolder(folder string) Source {
	return sources.NewLocalFiles(folder)
}

// FromS3 reads the pacts stored as *.json objects under a prefix of a bucket,
// using the default AWS credential chain.
func FromS3(ctx context.Context, bucket, prefix, region string) (Source, error) {
	source, err := sources.NewS3Bucket(ctx, sources.S3Config{Bucket: bucket, Prefix: prefix, Region: region})
	if err != nil {
		return nil, err
	}
	return source, nil
}

// FromAll reads the pacts of every source.
func FromAll(all ...Source) Source {
	multi := make(sources.Multi, 0, len(all))
	for _, s := range all {
		multi = append(multi, s)
	}
	return multi
}
