package main

import "github.com/sdcio/dataplane-translator/client/cmd"

func main() {
	cmd.Execute()
}
