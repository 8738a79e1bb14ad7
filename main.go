/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/neo-jack/1LoanManagemen/cmd"

func main() {
	cmd.Execute()
}
