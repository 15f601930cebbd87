package test

import (
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/testclient"
)

// stepDelay keeps scenarios under the default command throttle.
const stepDelay = 300 * time.Millisecond

// nextStep asks the guide for the way to the nearest unexplored room and
// returns the first direction.
func nextStep(client *testclient.TestClient) (string, error) {
	if err := client.Do("guide unexplored", "step"); err != nil {
		return "", err
	}
	for _, msg := range client.GetMessages() {
		if strings.Contains(msg, "step") {
			first := strings.Fields(msg)[0]
			return strings.TrimSuffix(first, ","), nil
		}
	}
	return "", fmt.Errorf("no route in %q", client.GetMessages())
}

func testLookAndMap(serverAddr string) error {
	client, err := register("Look and map", "looker", serverAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Do("look", "Exits:"); err != nil {
		return err
	}
	time.Sleep(stepDelay)
	return client.Do("map", "unexplored")
}

func testGuide(serverAddr string) error {
	client, err := register("Guide", "guide", serverAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	dir, err := nextStep(client)
	if err != nil {
		return err
	}
	logAction("Guide", "First step is "+dir)
	time.Sleep(stepDelay)
	return client.Do("guide", "Guide to what?")
}

func testExplore(serverAddr string) error {
	const testName = "Explore floor"

	client, err := register(testName, "explorer", serverAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	for i := 0; i < 3; i++ {
		dir, err := nextStep(client)
		if err != nil {
			return err
		}
		time.Sleep(stepDelay)
		logAction(testName, "Heading "+dir)
		if err := client.Do(dir, "You head "+dir+"."); err != nil {
			return err
		}
		time.Sleep(stepDelay)
	}
	return client.Do("map", "you")
}

func testResetScroll(serverAddr string) error {
	client, err := register("Reset scroll", "scroll", serverAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Do("floors", "No cleared floors are waiting to respawn."); err != nil {
		return err
	}
	time.Sleep(stepDelay)
	return client.Do("reset 1", "Floor 1 has nothing to bring back.")
}
