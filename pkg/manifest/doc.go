// SPDX-License-Identifier: MPL-2.0

// Package manifest reads, edits and writes package manifests (.nuspec files).
//
// A manifest is a small XML document:
//
//	<package xmlns="...">
//	  <metadata>
//	    <id>Sample.WebApp</id>
//	    <version>1.0.9</version>
//	    ...
//	  </metadata>
//	  <files>
//	    <file src="bin\Sample.WebApp.dll" target="bin\Sample.WebApp.dll" />
//	  </files>
//	</package>
//
// The document is held as a tree of Element values. Lookups compare local
// names only, so a manifest works the same with or without a namespace on
// its root. Namespace declarations and prefixes are written back unchanged.
// Comments and processing instructions other than the XML declaration are
// not kept.
package manifest
