package test

import (
	"time"
)

func testWho(serverAddr string) error {
	first, err := register("Who", "whoa", serverAddr)
	if err != nil {
		return err
	}
	defer first.Close()
	second, err := register("Who", "whob", serverAddr)
	if err != nil {
		return err
	}
	defer second.Close()

	if err := first.Expect(second.Name+" enters the dungeon.", time.Second); err != nil {
		return err
	}
	if err := first.Do("who", "In the dungeon"); err != nil {
		return err
	}
	return first.Expect(second.Name, time.Second)
}

func testFollow(serverAddr string) error {
	const testName = "Follow"

	leader, err := register(testName, "leader", serverAddr)
	if err != nil {
		return err
	}
	defer leader.Close()
	follower, err := register(testName, "follower", serverAddr)
	if err != nil {
		return err
	}
	defer follower.Close()

	logAction(testName, follower.Name+" follows "+leader.Name)
	if err := follower.Do("follow "+leader.Name, "You start following"); err != nil {
		return err
	}
	if err := leader.Expect(follower.Name+" is now following you.", time.Second); err != nil {
		return err
	}

	dir, err := nextStep(leader)
	if err != nil {
		return err
	}
	time.Sleep(stepDelay)
	follower.ClearMessages()
	if err := leader.Do(dir, "You head "+dir+"."); err != nil {
		return err
	}
	if err := follower.Expect(leader.Name+" heads "+dir+".", time.Second); err != nil {
		return err
	}

	time.Sleep(stepDelay)
	if err := follower.Do(dir, "You are following "); err != nil {
		return err
	}
	time.Sleep(stepDelay)
	return follower.Do("unfollow", "You stop following")
}
