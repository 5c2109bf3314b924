package main

import (
	stdtesting "testing"

	"github.com/stretchr/testify/assert"

	"github.com/jms-erp/jms/internal/app"
	_ "github.com/jms-erp/jms/testing"
)

func TestMainReturnsInTestMode(t *stdtesting.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	main()
}
