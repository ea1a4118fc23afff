package main

import (
	"context"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
)

type commandContext struct {
	storeFlag *string
	pipeline  *toolutil.Pipeline
}

func newCommandContext(storeFlag *string) *commandContext {
	return &commandContext{storeFlag: storeFlag}
}

// ensurePipeline builds the pipeline on first use so that --help and flag
// errors never touch the ledger or the network backends.
func (c *commandContext) ensurePipeline(ctx context.Context) (*toolutil.Pipeline, error) {
	if c.pipeline != nil {
		return c.pipeline, nil
	}
	cfg := toolutil.ConfigFromEnv()
	if c.storeFlag != nil && *c.storeFlag != "" {
		cfg.StorePath = *c.storeFlag
	}
	engine.Init(cfg)
	p, err := toolutil.NewPipeline(ctx, engine.Cfg)
	if err != nil {
		return nil, err
	}
	c.pipeline = p
	return p, nil
}

func (c *commandContext) close() {
	if c.pipeline != nil {
		c.pipeline.Close()
		c.pipeline = nil
	}
}
