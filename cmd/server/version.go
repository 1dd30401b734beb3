package main

import "github.com/carlmjohnson/versioninfo"

var version = versioninfo.Short()
