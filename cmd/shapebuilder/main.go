package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/shapebuilder/config"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + "_corrective" + ext
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] scene.glb sculpt.(glb|mqo) [output.glb]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -recipe recipe.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	recipeFile := flag.String("recipe", "", "YAML recipe file")
	source := flag.String("source", "", "skinned mesh name (default: base of the only deformer)")
	deformer := flag.String("deformer", "", "blendshape deformer (default: <source>_blendShape)")
	combination := flag.Bool("combination", false, "drive the new target by the active targets")
	name := flag.String("name", "", "target name")
	weights := flag.String("weights", "", "pose before building: name=weight,...")
	flag.Parse()

	var recipe *config.Recipe
	var err error
	if *recipeFile != "" {
		recipe, err = config.LoadRecipe(*recipeFile)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		if flag.NArg() < 2 {
			flag.Usage()
			return
		}
		c := &config.Corrective{
			Name:        *name,
			Source:      *source,
			Sculpt:      flag.Arg(1),
			Deformer:    *deformer,
			Combination: *combination,
		}
		if c.Weights, err = config.ParseWeights(*weights); err != nil {
			log.Fatal(err)
		}
		recipe = &config.Recipe{Scene: flag.Arg(0), Output: flag.Arg(2), Correctives: []*config.Corrective{c}}
		if recipe.Output == "" {
			recipe.Output = defaultOutputFile(recipe.Scene)
		}
		if err = recipe.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	ext := strings.ToLower(filepath.Ext(recipe.Output))
	if ext != ".glb" && ext != ".gltf" && ext != ".vrm" {
		log.Fatalf("Unsuppored output type: %v", ext)
	}

	log.Print("scene: ", recipe.Scene)
	if err := run(recipe); err != nil {
		log.Fatal(err)
	}
	log.Print("out: ", recipe.Output)
}
