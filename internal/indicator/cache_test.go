package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CacheTestSuite struct {
	suite.Suite
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (suite *CacheTestSuite) TestLineMemoizes() {
	cache := NewCache()
	calls := 0
	compute := func() Line {
		calls++

		return Line{1, 2, 3}
	}

	first := cache.Line(cacheKey("close", "ema", 12), compute)
	second := cache.Line(cacheKey("close", "ema", 12), compute)
	cache.Line(cacheKey("close", "ema", 26), compute)

	suite.Equal(2, calls)
	suite.Equal(first, second)
	suite.Equal(1, cache.Hits())

	cache.Reset()
	suite.Equal(0, cache.Hits())
	cache.Line(cacheKey("close", "ema", 12), compute)
	suite.Equal(3, calls)
}
