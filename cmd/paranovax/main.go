package main

import (
	"context"
	"log"
	"os"

	"github.com/Paraserot/ParanovaX-sub001/pkg/portal"
)

func main() {
	if err := portal.Main(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
