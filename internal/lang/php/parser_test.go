package php

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func nextIDFrom(start int) func() (symbol.ID, error) {
	n := start
	return func() (symbol.ID, error) {
		n++
		return symbol.ID(n), nil
	}
}

func TestParserNamespaceClassAndTrait(t *testing.T) {
	src := []byte(`<?php
namespace App\Services;

use App\Contracts\Logger;

trait Loggable {
    public function log() {
        helper();
    }
}

class Auth {
    use Loggable;

    private $token;

    public function check() {
        $this->log();
    }
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Auth")
	assert.Contains(t, names, "Loggable")
	assert.Contains(t, names, "check")
	assert.Contains(t, names, "log")
	assert.Contains(t, names, "token")

	require.Len(t, res.Imports, 1)
	assert.Equal(t, `\App\Contracts`, res.Imports[0].Path)
	assert.Equal(t, "Logger", res.Imports[0].Alias)

	var usesEdge bool
	for _, e := range res.Inheritance.Edges {
		if e.Child == "Auth" && e.Parent == "Loggable" && e.Kind == "uses" {
			usesEdge = true
		}
	}
	assert.True(t, usesEdge)
}

func TestParserMemberAndScopedCalls(t *testing.T) {
	src := []byte(`<?php
class Service {
    public function run() {
        $this->helper();
        Registry::instance();
    }
}
`)
	p := &Parser{}
	res, err := p.Parse(src, 1, nextIDFrom(0))
	require.NoError(t, err)

	var instanceCall, staticCall bool
	for _, mc := range res.MethodCalls {
		if mc.MethodName == "helper" && !mc.IsStatic {
			instanceCall = true
		}
		if mc.MethodName == "instance" && mc.IsStatic {
			staticCall = true
		}
	}
	assert.True(t, instanceCall)
	assert.True(t, staticCall)
}

func TestBehaviorVisibility(t *testing.T) {
	b := &Behavior{}
	assert.Equal(t, symbol.VisibilityPrivate, b.ParseVisibility("private function foo()"))
	assert.Equal(t, symbol.VisibilityModule, b.ParseVisibility("protected function foo()"))
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("public function foo()"))
	assert.Equal(t, symbol.VisibilityPublic, b.ParseVisibility("function foo()"))
}

func TestBehaviorModulePathDoesNotAppendName(t *testing.T) {
	b := &Behavior{}
	base, ok := b.ModulePathFromFile("src/Services/Auth.php", "src")
	require.True(t, ok)
	assert.Equal(t, `\Services\Auth`, base)
	assert.Equal(t, base, b.FormatModulePath(base, "Auth"))
}
