// Package scad2web bundles OpenSCAD source documents and everything they
// transitively include into a self-contained web package runnable by the
// OpenSCAD WebAssembly port.
//
// # Quick Start
//
// Create a service, run a build, and write the resulting files:
//
//	svc := scad2web.New()
//	result, err := svc.Build(ctx, scad2web.BuildRequest{
//	    Documents: []scad2web.Document{{Path: "models/gears.scad"}},
//	    Project:   scad2web.Project{Name: "gears", URI: "https://example.com/"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for name, data := range result.Files {
//	    os.WriteFile(filepath.Join("out", name), data, 0o644)
//	}
//
// # Build Pipeline
//
// A build runs these stages:
//
//  1. Canonical root computation (deepest common ancestor of all entries)
//  2. Compiler metadata extraction per entry (openscad --export-format=param)
//  3. Recursive include/use resolution into a virtual filesystem
//  4. Font asset bundling (runtime distribution or host fonts, plus fonts.conf)
//  5. Output planning (one collision-checked page name per entry)
//  6. Template rendering and content-addressing of the shared worker script
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := scad2web.New(
//	    scad2web.WithWorkers(4),
//	    scad2web.WithFontBundler(fonts.NewBundler(fonts.ModeHost, "")),
//	    scad2web.WithCleanURLs(true),
//	)
//
// The service only produces bytes keyed by output filename; writing the
// output directory and copying the runtime distribution tree alongside it
// is left to the caller.
package scad2web
