package parse_test

import (
	"time"

	"github.com/zsx/r3-sub004/parse"
)

// @generated from parse_test.go

//go:generate go run ../scripts/gen_parse_expects.go -o parse_expects_test.go parse_test.go

func withParseSetup(src string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.withSetup(src)
	}
}

func withParseInput(src string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.withInput(src)
	}
}

func withParseRules(src string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.withRules(src)
	}
}

func withParseOptions(opts ...parse.Option) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.withOptions(opts...)
	}
}

func withParseTimeout(timeout time.Duration) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.withTimeout(timeout)
	}
}

func expectParseResult(mold string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.expectResult(mold)
	}
}

func expectParseError(err error) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.expectError(err)
	}
}

func expectParseThrown(mold string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.expectThrown(mold)
	}
}

func expectParseVar(name string, mold string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.expectVar(name, mold)
	}
}

func expectParseOutput(output string) func(parseTestCase) parseTestCase {
	return func(pt parseTestCase) parseTestCase {
		return pt.expectOutput(output)
	}
}
