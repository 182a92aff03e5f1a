package dart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "line comment",
			in:   "a // import 'x.dart';\nb",
			want: "a                    \nb",
		},
		{
			name: "block comment keeps newlines",
			in:   "a /* x\ny */ b",
			want: "a     \n     b",
		},
		{
			name: "nested block comment",
			in:   "/* a /* b */ c */d",
			want: "                 d",
		},
		{
			name: "url in string is not a comment",
			in:   "f('http://example.com');",
			want: "f('http://example.com');",
		},
		{
			name: "comment markers inside raw string",
			in:   `r'/* not */' // gone`,
			want: `r'/* not */'        `,
		},
		{
			name: "escaped quote",
			in:   `'it\'s // fine' // x`,
			want: `'it\'s // fine'     `,
		},
		{
			name: "interpolation with nested string",
			in:   `"${m['k']} // kept" // x`,
			want: `"${m['k']} // kept"     `,
		},
		{
			name: "triple quoted",
			in:   "'''a\n// b\n''' // c",
			want: "'''a\n// b\n'''     ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripComments([]byte(tt.in))
			assert.Equal(t, tt.want, string(got))
			assert.Len(t, got, len(tt.in))
		})
	}
}

func TestExtractDirectives(t *testing.T) {
	src := `library app;

import 'package:flutter/material.dart';
import "src/home.dart" show Home;
import 'dart:async';
export 'src/barrel.dart';
part 'model.g.dart';
part of 'parent.dart';
// import 'commented.dart';
/* import 'blocked.dart'; */
import 'my%20file.dart'; import 'second.dart';
import r'raw.dart';
import 'stub.dart' if (dart.library.io) 'io.dart' if (dart.library.html) 'web.dart';
import 'unterminated.dart
import '';
final importance = 'import "fake.dart"';
const doc = '''
import 'in_string.dart';
''';
importFoo('x.dart');
`
	got := ExtractDirectives([]byte(src))

	want := []Directive{
		{Import, "package:flutter/material.dart", 3},
		{Import, "src/home.dart", 4},
		{Export, "src/barrel.dart", 6},
		{Part, "model.g.dart", 7},
		{Import, "my file.dart", 11},
		{Import, "second.dart", 11},
		{Import, "raw.dart", 12},
		{Import, "stub.dart", 13},
		{Import, "io.dart", 13},
		{Import, "web.dart", 13},
	}
	assert.Equal(t, want, got)
}

func TestExtractDirectivesFormattedConditional(t *testing.T) {
	src := `import 'package:flutter/widgets.dart';
import 'stub.dart'
    if (dart.library.io) 'io_impl.dart'
    if (dart.library.js_interop) 'web_impl.dart';
export 'platform.dart'
    if (dart.library.io) 'platform_io.dart';

import 'after.dart';
`
	want := []Directive{
		{Import, "package:flutter/widgets.dart", 1},
		{Import, "stub.dart", 2},
		{Import, "io_impl.dart", 2},
		{Import, "web_impl.dart", 2},
		{Export, "platform.dart", 5},
		{Export, "platform_io.dart", 5},
		{Import, "after.dart", 8},
	}
	assert.Equal(t, want, ExtractDirectives([]byte(src)))
}

func TestByteOrderMark(t *testing.T) {
	src := []byte("\xEF\xBB\xBFimport 'a.dart';\nimport 'b.dart';")

	assert.Equal(t, []Directive{
		{Import, "a.dart", 1},
		{Import, "b.dart", 2},
	}, ExtractDirectives(src))
	assert.Equal(t, "import 'a.dart';\nimport 'b.dart';", string(StripComments(src)))
}

func TestExtractDirectivesEmpty(t *testing.T) {
	assert.Empty(t, ExtractDirectives(nil))
	assert.Empty(t, ExtractDirectives([]byte("void main() {}\n")))
}

func TestDirectiveKindString(t *testing.T) {
	assert.Equal(t, "import", Import.String())
	assert.Equal(t, "export", Export.String())
	assert.Equal(t, "part", Part.String())
	assert.Equal(t, "unknown", DirectiveKind(0).String())
}

func TestTokens(t *testing.T) {
	content := []byte(`Image.asset('assets/img/logo-2x.png'); S.of(ctx).hello_world;`)

	var ids []string
	Identifiers(content, func(tok []byte) { ids = append(ids, string(tok)) })
	assert.Equal(t, []string{"Image", "asset", "assets", "img", "logo", "2x", "png", "S", "of", "ctx", "hello_world"}, ids)

	var paths []string
	Paths(content, func(tok []byte) { paths = append(paths, string(tok)) })
	assert.Equal(t, []string{"Image.asset", "assets/img/logo-2x.png", "S.of", "ctx", ".hello_world"}, paths)
}

func TestBoundedAt(t *testing.T) {
	content := []byte(`'a/b.png' xa/b.png`)
	assert.True(t, BoundedAt(content, 1, 7))
	assert.False(t, BoundedAt(content, 11, 7))
}
