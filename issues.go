package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

var ErrIssueListNotFound = errors.New("issue list not found")

//List of Jira issues to process
type JiraIssueList []string

// ReadIssueList reads issue keys from a text file, one key per line
func ReadIssueList(path string) (JiraIssueList, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrIssueListNotFound)
		}
		return nil, err
	}
	defer file.Close()

	issues, err := parseIssueList(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return issues, nil
}

// parseIssueList trims every line and drops the blank ones.
// Keys are not checked against Jira key syntax.
func parseIssueList(r io.Reader) (JiraIssueList, error) {
	var issues JiraIssueList

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if key := strings.TrimSpace(line); key != "" {
			issues = append(issues, key)
		}
	}

	return issues, scanner.Err()
}

//NewJiraIssueList cleans issue keys passed on the command line the same way as file lines
func NewJiraIssueList(args []string) JiraIssueList {
	var issues JiraIssueList
	for _, arg := range args {
		if key := strings.TrimSpace(arg); key != "" {
			issues = append(issues, key)
		}
	}
	return issues
}
