package configuration

import (
	"testing"

	"github.com/fulldump/biff"
)

func TestDefault(t *testing.T) {
	c := Default()

	biff.AssertEqual(c.Backend, "array")
	biff.AssertEqual(c.Growth, "exact")
	biff.AssertEqual(c.Items, 5)
	biff.AssertEqual(c.Workers, 4)
	biff.AssertEqual(c.LogLevel, "info")
	biff.AssertFalse(c.Version)
}
