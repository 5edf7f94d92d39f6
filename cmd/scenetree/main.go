// scenetree is a CLI utility for inspecting glTF scene documents.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/hollowtree/prism/internal/engine/animation"
	"github.com/hollowtree/prism/internal/engine/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetree - glTF scene inspection utility

Usage:
  scenetree <command> <file.gltf|file.glb>

Commands:
  info <file>   Show document statistics
  tree <file>   Print the node hierarchy

Examples:
  scenetree info model.glb
  scenetree tree scene.gltf`)
}

func open(path string) (*gltf.Document, *scene.NodeLayout) {
	doc, err := gltf.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	layout, err := scene.FromDocument(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return doc, layout
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetree info <file>")
		os.Exit(1)
	}

	doc, layout := open(args[0])

	primitives := 0
	for _, mesh := range doc.Meshes {
		primitives += len(mesh.Primitives)
	}

	fmt.Printf("Document:   %s\n", args[0])
	fmt.Printf("Scenes:     %d\n", len(doc.Scenes))
	fmt.Printf("Nodes:      %d\n", layout.Len())
	fmt.Printf("Meshes:     %d\n", len(doc.Meshes))
	fmt.Printf("Primitives: %d\n", primitives)
	fmt.Printf("Materials:  %d\n", len(doc.Materials))
	fmt.Printf("Textures:   %d\n", len(doc.Textures))
	fmt.Printf("Images:     %d\n", len(doc.Images))
	fmt.Printf("Animations: %d\n", len(doc.Animations))

	clips, err := animation.ParseClips(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(clips) > 0 {
		fmt.Println()
		fmt.Println("Animation clips:")
		for _, clip := range clips {
			var duration float32
			for _, channel := range clip.Channels {
				duration = max(duration, channel.Duration)
			}
			name := clip.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("  %-20s %2d channels  %.2fs\n", name, len(clip.Channels), duration)
		}
	}
}

func cmdTree(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetree tree <file>")
		os.Exit(1)
	}

	doc, layout := open(args[0])

	for i, s := range doc.Scenes {
		name := s.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("scene %d %s\n", i, name)
		for _, root := range s.Nodes {
			printNode(doc, layout, scene.NodeIndex(root), 1)
		}
	}
}

func printNode(doc *gltf.Document, layout *scene.NodeLayout, index scene.NodeIndex, depth int) {
	node := layout.Node(index)

	line := fmt.Sprintf("%s#%d", strings.Repeat("  ", depth), node.Index)
	if node.Name != "" {
		line += " " + node.Name
	}
	if meshIndex, ok := layout.NodeMesh(index); ok {
		line += fmt.Sprintf(" (mesh %d: %d primitives)", meshIndex, len(doc.Meshes[meshIndex].Primitives))
	}
	fmt.Println(line)

	for _, child := range node.Children {
		printNode(doc, layout, child, depth+1)
	}
}
