package compiler

import (
	"bytes"
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
)

type cacheKey struct {
	lang jam.Language
	hash uint64
}

// unitCache memoizes preprocessing by content hash. The cached unit is never
// walked; every caller receives a clone with its own parse tree.
type unitCache struct {
	units *lru.Cache[cacheKey, *preprocess.Unit]
}

func newUnitCache(size int) (*unitCache, error) {
	if size <= 0 {
		return &unitCache{}, nil
	}
	units, err := lru.New[cacheKey, *preprocess.Unit](size)
	if err != nil {
		return nil, err
	}
	return &unitCache{units: units}, nil
}

func (c *unitCache) Len() int {
	if c.units == nil {
		return 0
	}
	return c.units.Len()
}

func (c *unitCache) preprocess(ctx context.Context, lang jam.Language, src []byte) (*preprocess.Unit, bool, error) {
	hash, err := jam.Hash(src)
	if err != nil {
		return nil, false, err
	}
	key := cacheKey{lang: lang, hash: hash}
	if c.units != nil {
		if unit, ok := c.units.Get(key); ok && bytes.Equal(unit.Source, src) {
			return unit.Clone(), true, nil
		}
	}
	var unit *preprocess.Unit
	if lang == jam.C {
		unit, err = preprocess.C(ctx, src)
	} else {
		unit, err = preprocess.JS(ctx, src)
	}
	if err != nil {
		return nil, false, err
	}
	if c.units == nil {
		return unit, false, nil
	}
	c.units.Add(key, unit)
	return unit.Clone(), false, nil
}
