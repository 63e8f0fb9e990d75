/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "shadownexus/cmd"

func main() {
	cmd.Execute()
}
